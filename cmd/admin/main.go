// Command admin manages groups and inspects the event stream.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/redis/go-redis/v9"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin group-create <slug> <title> [description]  - Create a group")
	fmt.Println("  admin group-delete <slug>                        - Delete a group, keeping its posts")
	fmt.Println("  admin group-list                                 - List all groups")
	fmt.Println("  admin events-tail                                - Print events published to Redis")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	rdb := cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if os.Args[1] == "events-tail" {
		if err := tailEvents(ctx, rdb); err != nil {
			log.Fatal(err)
		}
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	groups := service.NewGroupService(
		repository.NewGroupRepository(db),
		cache.NewRedisListingCache(rdb, cache.ListingPrefix, cfg.IndexCacheTTL),
	)

	switch os.Args[1] {
	case "group-create":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin group-create <slug> <title> [description]")
			os.Exit(1)
		}
		in := service.CreateGroupInput{Slug: os.Args[2], Title: os.Args[3]}
		if len(os.Args) > 4 {
			in.Description = strings.Join(os.Args[4:], " ")
		}
		group, err := groups.Create(ctx, in)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Created group %q (ID: %d, slug: %s)\n", group.Title, group.ID, group.Slug)

	case "group-delete":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin group-delete <slug>")
			os.Exit(1)
		}
		if err := groups.Delete(ctx, os.Args[2]); err != nil {
			fail(err)
		}
		fmt.Printf("Deleted group %s\n", os.Args[2])

	case "group-list":
		list, err := groups.List(ctx)
		if err != nil {
			fail(err)
		}
		if len(list) == 0 {
			fmt.Println("No groups")
			return
		}
		for _, g := range list {
			fmt.Printf("%-30s %s\n", g.Slug, g.Title)
		}

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func tailEvents(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		return fmt.Errorf("events-tail needs a reachable Redis at REDIS_URL")
	}
	pub := events.NewRedisPublisher(rdb, events.DefaultRedisChannel)
	err := pub.Subscribe(ctx, func(evt events.Event) {
		fmt.Printf("%s %-16s %v\n", evt.OccurredAt.Format(time.RFC3339), evt.Type, evt.Payload)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Listening on %s, Ctrl-C to stop\n", events.DefaultRedisChannel)
	<-ctx.Done()
	return nil
}

func fail(err error) {
	if appErr, ok := models.AsAppError(err); ok && len(appErr.Fields) > 0 {
		for field, msg := range appErr.Fields {
			fmt.Printf("%s: %s\n", field, msg)
		}
		os.Exit(1)
	}
	log.Fatalf("Error: %v", err)
}
