package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Content is a movie or series in the catalog. Rows are write-once.
type Content struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string         `gorm:"not null;index" json:"title"`
	Type        string         `gorm:"not null;check:type IN ('movie','tv')" json:"type"`
	Description string         `gorm:"type:text;not null" json:"description"`
	PosterPath  string         `json:"poster_path"`
	CoverPath   string         `json:"cover_path"`
	Genres      pq.StringArray `gorm:"type:text[]" json:"genres"`
	Rating      float64        `gorm:"type:numeric(3,1);check:rating >= 0 AND rating <= 10" json:"rating"`
	Duration    string         `json:"duration"`
	Cast        pq.StringArray `gorm:"column:cast_members;type:text[]" json:"cast"`
	ReleaseYear int            `json:"release_year"`
	IsTrending  bool           `gorm:"default:false;index" json:"is_trending"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

func (Content) TableName() string {
	return "content"
}
