// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByUsername matches exactly; usernames are case sensitive in URLs.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByEmail ignores case.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// firstWhere loads one T matching query, or returns gorm.ErrRecordNotFound.
func firstWhere[T any](ctx context.Context, db *gorm.DB, query any, args ...any) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return firstWhere[models.User](ctx, r.db, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return firstWhere[models.User](ctx, r.db, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return firstWhere[models.User](ctx, r.db, "LOWER(email) = LOWER(?)", email)
}
