// Package service holds the blog's business rules between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"log/slog"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/storage"

	"gorm.io/gorm"
)

// PostPage is one rendered page of a post listing, shaped like the page_obj templates expect.
type PostPage struct {
	ObjectList  []*models.Post `json:"object_list"`
	Number      int            `json:"number"`
	NumPages    int            `json:"num_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
	Count       int64          `json:"count"`
}

// NewPostPage combines posts with their pagination metadata.
func NewPostPage(posts []*models.Post, page pagination.Page) *PostPage {
	if posts == nil {
		posts = []*models.Post{}
	}
	return &PostPage{
		ObjectList:  posts,
		Number:      page.Number,
		NumPages:    page.NumPages,
		HasNext:     page.HasNext(),
		HasPrevious: page.HasPrevious(),
		Count:       page.TotalItems,
	}
}

// translate maps repository errors to AppErrors.
func translate(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if _, ok := models.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// attachImageURLs resolves each post's stored image key to a fetchable URL.
func attachImageURLs(ctx context.Context, store storage.ImageStore, posts ...*models.Post) {
	if store == nil {
		return
	}
	for _, p := range posts {
		if p == nil || p.Image == "" {
			continue
		}
		u, err := store.URL(ctx, p.Image)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to resolve image url",
				slog.Uint64("post_id", uint64(p.ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		p.ImageURL = u
	}
}

// listPostPage counts the filtered posts, clamps rawPage and loads that page.
func listPostPage(ctx context.Context, posts repository.PostRepository, store storage.ImageStore, filter repository.PostFilter, rawPage string) (*PostPage, error) {
	total, err := posts.Count(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return fetchPostPage(ctx, posts, store, filter, pagination.New(total, pagination.PostsPerPage, rawPage))
}

// fetchPostPage loads the rows of an already clamped page.
func fetchPostPage(ctx context.Context, posts repository.PostRepository, store storage.ImageStore, filter repository.PostFilter, page pagination.Page) (*PostPage, error) {
	items, err := posts.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	attachImageURLs(ctx, store, items...)
	return NewPostPage(items, page), nil
}

func invalidateListings(ctx context.Context, c cache.ListingCache) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to invalidate listing cache", slog.String("error", err.Error()))
	}
}

func removeImage(ctx context.Context, store storage.ImageStore, key string) {
	if store == nil || key == "" {
		return
	}
	if err := store.Remove(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove image", slog.String("key", key), slog.String("error", err.Error()))
	}
}
