package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"yatube/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCommentRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "leo")
	reader := createUser(t, db, "ann")
	post := createPosts(t, db, author, nil, 1)[0]
	other := createPosts(t, db, reader, nil, 1)[0]

	for _, text := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &models.Comment{Text: text, PostID: post.ID, AuthorID: reader.ID}))
	}
	require.NoError(t, repo.Create(ctx, &models.Comment{Text: "elsewhere", PostID: other.ID, AuthorID: author.ID}))

	comments, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "third", comments[2].Text)
	assert.Equal(t, "ann", comments[0].Author.Username)
}

func TestFollowRepository_GetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	leo := createUser(t, db, "leo")
	ann := createUser(t, db, "ann")

	created, err := repo.GetOrCreate(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.GetOrCreate(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var n int64
	db.Model(&models.Follow{}).Count(&n)
	assert.EqualValues(t, 1, n)

	ok, err := repo.Exists(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")

	deleted, err := repo.Delete(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	deleted, err = repo.Delete(ctx, ann.ID, leo.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestFollowRepository_ConcurrentFollows(t *testing.T) {
	db := newTestDB(t)
	repo := NewFollowRepository(db)
	leo := createUser(t, db, "leo")
	ann := createUser(t, db, "ann")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.GetOrCreate(context.Background(), ann.ID, leo.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var n int64
	db.Model(&models.Follow{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: follows.user_id, follows.author_id")))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(assert.AnError))
}

func TestGroupRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	cats := &models.Group{Title: "Cats", Slug: "cats"}
	dogs := &models.Group{Title: "Dogs", Slug: "dogs"}
	require.NoError(t, repo.Create(ctx, dogs))
	require.NoError(t, repo.Create(ctx, cats))
	assert.Error(t, repo.Create(ctx, &models.Group{Title: "Again", Slug: "cats"}))

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Cats", groups[0].Title)

	got, err := repo.GetBySlug(ctx, "dogs")
	require.NoError(t, err)
	assert.Equal(t, dogs.ID, got.ID)

	author := createUser(t, db, "leo")
	post := createPosts(t, db, author, cats, 1)[0]

	require.NoError(t, repo.Delete(ctx, cats.ID))
	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Nil(t, reloaded.GroupID)

	assert.ErrorIs(t, repo.Delete(ctx, cats.ID), gorm.ErrRecordNotFound)
	_, err = repo.GetByID(ctx, cats.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
