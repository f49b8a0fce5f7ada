package repository

import (
	"context"
	"fmt"

	"afriotv/internal/changefeed"
	"afriotv/internal/docpath"
	"afriotv/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WatchlistRepository interface {
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	Get(ctx context.Context, userID, entryID string) (*models.WatchlistEntry, error)
	// Add is idempotent per (user, content): an existing entry is returned
	// with created=false.
	Add(ctx context.Context, userID, contentID string) (entry *models.WatchlistEntry, created bool, err error)
	// Remove deletes the entry; a missing entry is not an error.
	Remove(ctx context.Context, userID, entryID string) error
}

type watchlistRepository struct {
	db   *gorm.DB
	feed changefeed.Feed
}

func NewWatchlistRepository(db *gorm.DB, feed changefeed.Feed) WatchlistRepository {
	return &watchlistRepository{db: db, feed: feed}
}

func (r *watchlistRepository) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	var entries []models.WatchlistEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return entries, nil
}

func (r *watchlistRepository) Get(ctx context.Context, userID, entryID string) (*models.WatchlistEntry, error) {
	var e models.WatchlistEntry
	if err := r.db.WithContext(ctx).First(&e, "id = ? AND user_id = ?", entryID, userID).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *watchlistRepository) Add(ctx context.Context, userID, contentID string) (*models.WatchlistEntry, bool, error) {
	entry := &models.WatchlistEntry{UserID: userID, ContentID: contentID}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return nil, false, fmt.Errorf("add to watchlist: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var existing models.WatchlistEntry
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND content_id = ?", userID, contentID).
			First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("load existing entry: %w", err)
		}
		return &existing, false, nil
	}

	publish(ctx, r.feed, docpath.Watchlist(userID), docpath.WatchlistEntry(userID, entry.ID))
	return entry, true, nil
}

func (r *watchlistRepository) Remove(ctx context.Context, userID, entryID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.WatchlistEntry{})
	if res.Error != nil {
		return fmt.Errorf("remove from watchlist: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		publish(ctx, r.feed, docpath.Watchlist(userID), docpath.WatchlistEntry(userID, entryID))
	}
	return nil
}
