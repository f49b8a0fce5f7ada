package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WatchlistEntry is a users/{uid}/watchlist document. A (user, content) pair
// appears at most once.
type WatchlistEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_watchlist_user_content" json:"-"`
	ContentID string    `gorm:"type:uuid;not null;uniqueIndex:idx_watchlist_user_content" json:"content_id"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (e *WatchlistEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return
}

func (WatchlistEntry) TableName() string {
	return "watchlist_entries"
}
