package repository

import (
	"context"
	"fmt"
	"time"

	"afriotv/internal/changefeed"
	"afriotv/internal/docpath"
	"afriotv/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, fields ProfileFields) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// ProfileFields are the merge-updatable profile attributes; nil leaves a
// field unchanged.
type ProfileFields struct {
	DisplayName *string
	PhotoURL    *string
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db   *gorm.DB
	feed changefeed.Feed
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB, feed changefeed.Feed) UserRepository {
	return &userRepository{db: db, feed: feed}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	publish(ctx, r.feed, docpath.User(user.ID))
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	// return nil on miss so callers never mistake a zero-value user for a hit
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, fields ProfileFields) (*models.User, error) {
	updates := map[string]any{}
	if fields.DisplayName != nil {
		updates["display_name"] = *fields.DisplayName
	}
	if fields.PhotoURL != nil {
		updates["photo_url"] = *fields.PhotoURL
	}

	db := r.db.WithContext(ctx)
	if len(updates) > 0 {
		res := db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
		publish(ctx, r.feed, docpath.User(id))
	}
	return r.FindByID(ctx, id)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", time.Now()).Error
}
