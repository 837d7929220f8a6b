// Package seed creates demo users, groups, posts, comments and follows for
// development databases and tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "Yatube-Demo-2024!"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	hash  string
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a Factory bound to db. A zero opts.Seed picks a random one.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	cost := bcrypt.DefaultCost
	if opts.Fast {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		hash:   string(hash),
		nextID: 1000,
	}, nil
}

func (f *Factory) persist(ctx context.Context, kind string, v any, setID func(uint)) error {
	if f.opts.DryRun {
		f.nextID++
		setID(f.nextID)
		middleware.Logger.DebugContext(ctx, "dry-run create", slog.String("kind", kind), slog.Any("value", v))
		return nil
	}
	return f.db.WithContext(ctx).Create(v).Error
}

// CreateUser builds and saves a user. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := usernameFor(first, last, f.seq)
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.hash,
		FirstName: first,
		LastName:  last,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.persist(ctx, "user", user, func(id uint) { user.ID = id }); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateGroup builds and saves a group with a unique slug.
func (f *Factory) CreateGroup(ctx context.Context, overrides ...func(*models.Group)) (*models.Group, error) {
	f.seq++
	title := capitalize(f.faker.HipsterWord()) + " " + capitalize(f.faker.Noun())
	group := &models.Group{
		Title:       title,
		Slug:        fmt.Sprintf("%s-%d", slugify(title), f.seq),
		Description: f.faker.Sentence(12),
	}
	for _, override := range overrides {
		override(group)
	}
	if err := f.persist(ctx, "group", group, func(id uint) { group.ID = id }); err != nil {
		return nil, err
	}
	return group, nil
}

// CreatePost builds and saves a post by author, dated within opts.MaxAge.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, group *models.Group, overrides ...func(*models.Post)) (*models.Post, error) {
	now := time.Now()
	post := &models.Post{
		Text:      f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "),
		AuthorID:  author.ID,
		CreatedAt: f.faker.DateRange(now.Add(-f.opts.maxAge()), now),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.persist(ctx, "post", post, func(id uint) { post.ID = id }); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment builds and saves a comment dated after its post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Text:      f.faker.Sentence(f.faker.Number(3, 15)),
		PostID:    post.ID,
		AuthorID:  author.ID,
		CreatedAt: f.faker.DateRange(post.CreatedAt, time.Now()),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.persist(ctx, "comment", comment, func(id uint) { comment.ID = id }); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow subscribes user to author.
func (f *Factory) CreateFollow(ctx context.Context, user, author *models.User) (*models.Follow, error) {
	if user.ID == author.ID {
		return nil, fmt.Errorf("user %d cannot follow themselves", user.ID)
	}
	follow := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	if err := f.persist(ctx, "follow", follow, func(id uint) { follow.ID = id }); err != nil {
		return nil, err
	}
	return follow, nil
}

// pick returns a random element index in [0, n).
func (f *Factory) pick(n int) int {
	return f.faker.Number(0, n-1)
}

func usernameFor(first, last string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(first + "." + last) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.') {
			b.WriteRune(r)
		}
	}
	return fmt.Sprintf("%s%d", b.String(), n)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 40 {
		out = strings.TrimSuffix(out[:40], "-")
	}
	if out == "" {
		out = "group"
	}
	return out
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
