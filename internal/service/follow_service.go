package service

import (
	"context"

	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/storage"
)

// FollowService manages subscriptions between users and the resulting feed.
type FollowService struct {
	follows   repository.FollowRepository
	users     repository.UserRepository
	posts     repository.PostRepository
	store     storage.ImageStore
	publisher events.Publisher
}

func NewFollowService(
	follows repository.FollowRepository,
	users repository.UserRepository,
	posts repository.PostRepository,
	store storage.ImageStore,
	publisher events.Publisher,
) *FollowService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &FollowService{follows: follows, users: users, posts: posts, store: store, publisher: publisher}
}

func (s *FollowService) author(ctx context.Context, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, translate(err, "User", username)
	}
	return author, nil
}

// Follow subscribes followerID to the author. Following twice or following
// yourself changes nothing.
func (s *FollowService) Follow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	if followerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == followerID {
		return author, nil
	}

	created, err := s.follows.GetOrCreate(ctx, followerID, author.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if created {
		events.Emit(ctx, s.publisher, events.FollowCreated, map[string]any{
			"user_id":   followerID,
			"author_id": author.ID,
		})
	}
	return author, nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, username string) (*models.User, error) {
	if followerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	author, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.follows.Delete(ctx, followerID, author.ID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return author, nil
}

// IsFollowing reports whether followerID follows authorID. Anonymous viewers follow nobody.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	if followerID == 0 {
		return false, nil
	}
	ok, err := s.follows.Exists(ctx, followerID, authorID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return ok, nil
}

// Feed returns a page of posts by authors userID follows.
func (s *FollowService) Feed(ctx context.Context, userID uint, rawPage string) (*PostPage, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return listPostPage(ctx, s.posts, s.store, repository.PostFilter{FollowerID: userID}, rawPage)
}
