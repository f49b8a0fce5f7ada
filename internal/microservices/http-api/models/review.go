package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a content/{id}/reviews document. Author name and photo are
// copied at write time and never updated.
type Review struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	ContentID   string    `gorm:"type:uuid;not null;index" json:"-"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Rating      int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment     string    `gorm:"type:text;not null" json:"comment"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	PhotoURL    string    `gorm:"not null;default:''" json:"photo_url"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

func (Review) TableName() string {
	return "reviews"
}
