package service

import (
	"context"
	"strings"

	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type CommentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	publisher events.Publisher
}

type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	Text     string
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	publisher events.Publisher,
) *CommentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CommentService{comments: comments, posts: posts, publisher: publisher}
}

// CreateComment adds a comment by in.AuthorID to an existing post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, translate(err, "Post", in.PostID)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewFieldValidationError(map[string]string{"text": validation.MsgRequired})
	}

	comment := &models.Comment{
		Text:     text,
		PostID:   in.PostID,
		AuthorID: in.AuthorID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}

	events.Emit(ctx, s.publisher, events.CommentCreated, map[string]any{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
	})
	return comment, nil
}
