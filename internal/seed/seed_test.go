package seed

import (
	"testing"
	"time"

	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func testOptions() Options {
	return Options{
		Users:           6,
		Groups:          3,
		Posts:           25,
		CommentsPerPost: 2,
		FollowsPerUser:  2,
		MaxAge:          48 * time.Hour,
		Fast:            true,
		Seed:            42,
	}
}

func TestSeeder_Run(t *testing.T) {
	db := newTestDB(t)

	summary, err := NewSeeder(db, testOptions()).Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 3, summary.Groups)
	assert.Equal(t, 25, summary.Posts)
	assert.EqualValues(t, summary.Users, count(t, db, &models.User{}))
	assert.EqualValues(t, summary.Groups, count(t, db, &models.Group{}))
	assert.EqualValues(t, summary.Posts, count(t, db, &models.Post{}))
	assert.EqualValues(t, summary.Comments, count(t, db, &models.Comment{}))
	assert.EqualValues(t, summary.Follows, count(t, db, &models.Follow{}))

	var self int64
	require.NoError(t, db.Model(&models.Follow{}).Where("user_id = author_id").Count(&self).Error)
	assert.Zero(t, self, "nobody follows themselves")

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username))
		assert.NoError(t, validation.ValidateEmail(u.Email))
	}
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(DefaultPassword)))

	var groups []models.Group
	require.NoError(t, db.Find(&groups).Error)
	for _, g := range groups {
		assert.NoError(t, validation.ValidateGroupSlug(g.Slug), g.Slug)
	}

	var oldest models.Post
	require.NoError(t, db.Order("created_at ASC").First(&oldest).Error)
	assert.WithinDuration(t, time.Now(), oldest.CreatedAt, 49*time.Hour)
}

func TestSeeder_CleanReplacesData(t *testing.T) {
	db := newTestDB(t)

	_, err := NewSeeder(db, testOptions()).Run(t.Context())
	require.NoError(t, err)

	opts := testOptions()
	opts.Clean = true
	opts.Users, opts.Posts = 2, 4
	opts.Seed = 7
	_, err = NewSeeder(db, opts).Run(t.Context())
	require.NoError(t, err)

	assert.EqualValues(t, 2, count(t, db, &models.User{}))
	assert.EqualValues(t, 4, count(t, db, &models.Post{}))
}

func TestSeeder_DryRunWritesNothing(t *testing.T) {
	db := newTestDB(t)
	opts := testOptions()
	opts.DryRun = true

	summary, err := NewSeeder(db, opts).Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 25, summary.Posts)
	assert.Zero(t, count(t, db, &models.User{}))
	assert.Zero(t, count(t, db, &models.Post{}))
}

func TestSeeder_PostsNeedUsers(t *testing.T) {
	_, err := NewSeeder(newTestDB(t), Options{Posts: 1}).Run(t.Context())
	assert.Error(t, err)
}

func TestClearAll(t *testing.T) {
	db := newTestDB(t)
	_, err := NewSeeder(db, testOptions()).Run(t.Context())
	require.NoError(t, err)

	require.NoError(t, ClearAll(db))
	for _, m := range []any{&models.User{}, &models.Group{}, &models.Post{}, &models.Comment{}, &models.Follow{}} {
		assert.Zero(t, count(t, db, m))
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "vinyl-kale", slugify("Vinyl Kale"))
	assert.Equal(t, "a-b", slugify("  a -- b!"))
	assert.Equal(t, "group", slugify("!!!"))
	assert.LessOrEqual(t, len(slugify("abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij")), 40)
}

func TestUsernameFor(t *testing.T) {
	assert.Equal(t, "leo.tolstoy7", usernameFor("Leo", "Tolstoy", 7))
	assert.Equal(t, "ren.oneil3", usernameFor("René", "O'Neil", 3))
}
