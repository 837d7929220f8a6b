package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options controls how much demo data the Seeder creates.
type Options struct {
	Users           int
	Groups          int
	Posts           int
	CommentsPerPost int // upper bound; each post gets 0..CommentsPerPost
	FollowsPerUser  int // upper bound; each user follows 0..FollowsPerUser authors
	MaxAge          time.Duration
	Clean           bool
	DryRun          bool
	// Fast hashes the shared password at bcrypt.MinCost.
	Fast bool
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
}

// DefaultOptions returns a small data set suitable for local development.
func DefaultOptions() Options {
	return Options{
		Users:           10,
		Groups:          4,
		Posts:           60,
		CommentsPerPost: 3,
		FollowsPerUser:  3,
		MaxAge:          30 * 24 * time.Hour,
	}
}

func (o Options) maxAge() time.Duration {
	if o.MaxAge <= 0 {
		return 30 * 24 * time.Hour
	}
	return o.MaxAge
}

// Summary reports how many rows a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d groups=%d posts=%d comments=%d follows=%d",
		s.Users, s.Groups, s.Posts, s.Comments, s.Follows)
}

// Seeder fills a database with demo content.
type Seeder struct {
	db   *gorm.DB
	opts Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts}
}

// Run optionally cleans the database and then creates the configured data in
// a single transaction. In DryRun mode nothing is written.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.Posts > 0 && s.opts.Users == 0 {
		return nil, errors.New("posts need at least one user")
	}
	if s.opts.DryRun {
		f, err := NewFactory(s.db, s.opts)
		if err != nil {
			return nil, err
		}
		return s.populate(ctx, f)
	}

	var summary *Summary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.opts.Clean {
			if err := ClearAll(tx); err != nil {
				return err
			}
		}
		f, err := NewFactory(tx, s.opts)
		if err != nil {
			return err
		}
		summary, err = s.populate(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "seed complete", slog.String("summary", summary.String()))
	return summary, nil
}

func (s *Seeder) populate(ctx context.Context, f *Factory) (*Summary, error) {
	summary := &Summary{}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)

	groups := make([]*models.Group, 0, s.opts.Groups)
	for i := 0; i < s.opts.Groups; i++ {
		g, err := f.CreateGroup(ctx)
		if err != nil {
			return nil, fmt.Errorf("create group: %w", err)
		}
		groups = append(groups, g)
	}
	summary.Groups = len(groups)

	for i := 0; i < s.opts.Posts; i++ {
		author := users[f.pick(len(users))]
		// Roughly a third of posts stay ungrouped.
		var group *models.Group
		if len(groups) > 0 && f.pick(3) > 0 {
			group = groups[f.pick(len(groups))]
		}
		post, err := f.CreatePost(ctx, author, group)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		summary.Posts++

		if s.opts.CommentsPerPost <= 0 {
			continue
		}
		for n := f.faker.Number(0, s.opts.CommentsPerPost); n > 0; n-- {
			if _, err := f.CreateComment(ctx, users[f.pick(len(users))], post); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			summary.Comments++
		}
		if summary.Posts%100 == 0 {
			middleware.Logger.InfoContext(ctx, "seeding posts", slog.Int("created", summary.Posts))
		}
	}

	if len(users) > 1 && s.opts.FollowsPerUser > 0 {
		for _, u := range users {
			seen := map[uint]bool{u.ID: true}
			want := f.faker.Number(0, min(s.opts.FollowsPerUser, len(users)-1))
			for len(seen)-1 < want {
				author := users[f.pick(len(users))]
				if seen[author.ID] {
					continue
				}
				seen[author.ID] = true
				if _, err := f.CreateFollow(ctx, u, author); err != nil {
					return nil, fmt.Errorf("create follow: %w", err)
				}
				summary.Follows++
			}
		}
	}

	return summary, nil
}

// ClearAll deletes every seeded row, children before parents, so it works with
// or without foreign key cascades.
func ClearAll(db *gorm.DB) error {
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.Comment{},
		&models.Follow{},
		&models.Post{},
		&models.Group{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}
