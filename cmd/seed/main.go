// Command seed fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	numGroups := flag.Int("groups", defaults.Groups, "Number of groups to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Maximum comments per post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Maximum authors each user follows")
	maxAge := flag.Duration("max-age", defaults.MaxAge, "Spread post dates over this window")
	shouldClean := flag.Bool("clean", false, "Delete existing content before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	fast := flag.Bool("fast", false, "Hash the shared password at minimum bcrypt cost")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	log.Printf("Target: %d users, %d groups, %d posts, clean=%v, dry-run=%v",
		*numUsers, *numGroups, *numPosts, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	summary, err := seed.NewSeeder(db, seed.Options{
		Users:           *numUsers,
		Groups:          *numGroups,
		Posts:           *numPosts,
		CommentsPerPost: *comments,
		FollowsPerUser:  *follows,
		MaxAge:          *maxAge,
		Clean:           *shouldClean,
		DryRun:          *dryRun,
		Fast:            *fast,
		Seed:            *randSeed,
	}).Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// Cached index pages would otherwise hide the new posts until they expire.
	if !*dryRun {
		if rdb := cache.InitRedis(cfg.RedisURL); rdb != nil {
			listings := cache.NewRedisListingCache(rdb, cache.ListingPrefix, cfg.IndexCacheTTL)
			if err := listings.Invalidate(ctx); err != nil {
				log.Printf("Failed to invalidate listing cache: %v", err)
			}
			_ = cache.Close()
		}
	}

	log.Printf("Done: %s", summary)
	log.Printf("All seeded users share the password: %s", seed.DefaultPassword)
}
