package service

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"gorm.io/gorm"
)

// GroupService manages groups. Groups are created by operators, not through the web UI.
type GroupService struct {
	groups   repository.GroupRepository
	listings cache.ListingCache
}

type CreateGroupInput struct {
	Title       string
	Slug        string
	Description string
}

func NewGroupService(groups repository.GroupRepository, listings cache.ListingCache) *GroupService {
	return &GroupService{groups: groups, listings: listings}
}

func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	fields := validation.FieldErrors{}
	slug := strings.TrimSpace(in.Slug)
	title := strings.TrimSpace(in.Title)

	if err := validation.ValidateGroupTitle(title); err != nil {
		fields.Add("title", err.Error())
	}
	if err := validation.ValidateGroupSlug(slug); err != nil {
		fields.Add("slug", err.Error())
	} else if _, err := s.groups.GetBySlug(ctx, slug); err == nil {
		fields.Add("slug", "Group with this slug already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}
	if fields.Any() {
		return nil, models.NewFieldValidationError(fields)
	}

	group := &models.Group{Title: title, Slug: slug, Description: strings.TrimSpace(in.Description)}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, models.NewInternalError(err)
	}
	return group, nil
}

// Delete removes the group identified by slug; its posts become ungrouped.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return translate(err, "Group", slug)
	}
	if err := s.groups.Delete(ctx, group.ID); err != nil {
		return translate(err, "Group", slug)
	}
	invalidateListings(ctx, s.listings)
	return nil
}

func (s *GroupService) List(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}
