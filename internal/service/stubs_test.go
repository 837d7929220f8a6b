package service

import (
	"context"
	"sync"
	"testing"

	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	listFn    func(context.Context, repository.PostFilter, int, int) ([]*models.Post, error)
	countFn   func(context.Context, repository.PostFilter) (int64, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, f, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *postRepoStub) Update(ctx context.Context, p *models.Post) error { return s.updateFn(ctx, p) }
func (s *postRepoStub) Delete(ctx context.Context, id uint) error        { return s.deleteFn(ctx, id) }

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 1, Text: "text"}, nil
		},
		listFn:   func(context.Context, repository.PostFilter, int, int) ([]*models.Post, error) { return nil, nil },
		countFn:  func(context.Context, repository.PostFilter) (int64, error) { return 0, nil },
		updateFn: func(context.Context, *models.Post) error { return nil },
		deleteFn: func(context.Context, uint) error { return nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	createFn    func(context.Context, *models.Group) error
	getByIDFn   func(context.Context, uint) (*models.Group, error)
	getBySlugFn func(context.Context, string) (*models.Group, error)
	listFn      func(context.Context) ([]*models.Group, error)
	deleteFn    func(context.Context, uint) error
}

func (s *groupRepoStub) Create(ctx context.Context, g *models.Group) error { return s.createFn(ctx, g) }
func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) List(ctx context.Context) ([]*models.Group, error) { return s.listFn(ctx) }
func (s *groupRepoStub) Delete(ctx context.Context, id uint) error         { return s.deleteFn(ctx, id) }

func noopGroupRepo() *groupRepoStub {
	return &groupRepoStub{
		createFn: func(context.Context, *models.Group) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Group, error) {
			if id == 5 {
				return &models.Group{ID: 5, Slug: "cats", Title: "Cats"}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		getBySlugFn: func(_ context.Context, slug string) (*models.Group, error) {
			if slug == "cats" {
				return &models.Group{ID: 5, Slug: "cats", Title: "Cats"}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		listFn:   func(context.Context) ([]*models.Group, error) { return nil, nil },
		deleteFn: func(context.Context, uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func noopUserRepo() *userRepoStub {
	notFound := func() (*models.User, error) { return nil, gorm.ErrRecordNotFound }
	return &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		getByIDFn:       func(context.Context, uint) (*models.User, error) { return notFound() },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return notFound() },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return notFound() },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(context.Context, *models.Comment) error { return nil },
		listByPostFn: func(context.Context, uint) ([]*models.Comment, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	existsFn      func(context.Context, uint, uint) (bool, error)
	getOrCreateFn func(context.Context, uint, uint) (bool, error)
	deleteFn      func(context.Context, uint, uint) (int64, error)
}

func (s *followRepoStub) Exists(ctx context.Context, u, a uint) (bool, error) {
	return s.existsFn(ctx, u, a)
}
func (s *followRepoStub) GetOrCreate(ctx context.Context, u, a uint) (bool, error) {
	return s.getOrCreateFn(ctx, u, a)
}
func (s *followRepoStub) Delete(ctx context.Context, u, a uint) (int64, error) {
	return s.deleteFn(ctx, u, a)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		existsFn:      func(context.Context, uint, uint) (bool, error) { return false, nil },
		getOrCreateFn: func(context.Context, uint, uint) (bool, error) { return true, nil },
		deleteFn:      func(context.Context, uint, uint) (int64, error) { return 1, nil },
	}
}

// memoryStore is an in-memory storage.ImageStore.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Put(_ context.Context, key, _ string, data []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) URL(_ context.Context, key string) (string, error) {
	return "/media/" + key, nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// countingCache records invalidations and never hits.
type countingCache struct {
	invalidations int
}

func (c *countingCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (c *countingCache) Set(context.Context, string, any) error         { return nil }
func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

func assertCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := models.AsAppError(err)
	require.True(t, ok, "expected *models.AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func assertValidationError(t *testing.T, err error) map[string]string {
	t.Helper()
	return assertCode(t, err, models.CodeValidation).Fields
}
