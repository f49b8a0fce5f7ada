package repository

import (
	"context"
	"fmt"

	"afriotv/internal/changefeed"
	"afriotv/internal/docpath"
	"afriotv/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Get(ctx context.Context, contentID, id string) (*models.Review, error)
	ListByContent(ctx context.Context, contentID string) ([]models.Review, error)
}

type reviewRepository struct {
	db   *gorm.DB
	feed changefeed.Feed
}

func NewReviewRepository(db *gorm.DB, feed changefeed.Feed) ReviewRepository {
	return &reviewRepository{db: db, feed: feed}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	publish(ctx, r.feed, docpath.Reviews(review.ContentID))
	return nil
}

func (r *reviewRepository) Get(ctx context.Context, contentID, id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ? AND content_id = ?", id, contentID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByContent returns the reviews of one item, newest first.
func (r *reviewRepository) ListByContent(ctx context.Context, contentID string) ([]models.Review, error) {
	var list []models.Review
	if err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return list, nil
}
