package dto

import (
	"afriotv/internal/catalog"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/reviews"
)

// ContentQuery: filters for the catalog listing
type ContentQuery struct {
	Type     string `form:"type" binding:"omitempty,oneof=movie tv"`
	Genre    string `form:"genre"`
	Trending bool   `form:"trending"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

type SearchQuery struct {
	Q string `form:"q"`
}

type ContentListResponse struct {
	Data  []models.Content `json:"data"`
	Count int              `json:"count"`
}

func NewContentListResponse(list []models.Content) *ContentListResponse {
	if list == nil {
		list = []models.Content{}
	}
	return &ContentListResponse{Data: list, Count: len(list)}
}

// FromItemToModel converts the admin content form into a row.
func FromItemToModel(it catalog.Item) *models.Content {
	return &models.Content{
		Title:       it.Title,
		Type:        it.Type,
		Description: it.Description,
		PosterPath:  it.PosterPath,
		CoverPath:   it.CoverPath,
		Genres:      it.Genres,
		Rating:      it.Rating,
		Duration:    it.Duration,
		Cast:        it.Cast,
		ReleaseYear: it.ReleaseYear,
		IsTrending:  it.IsTrending,
	}
}

// PlayerResponse is the watch view of an item.
type PlayerResponse struct {
	Content *models.Content  `json:"content"`
	Related []models.Content `json:"related"`
}

// CreateReviewRequest carries the author's id and display details, which
// are copied into the review.
type CreateReviewRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Rating      int    `json:"rating" binding:"required,min=1,max=5"`
	Comment     string `json:"comment" binding:"required,min=10,max=1000"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

type ReviewListResponse struct {
	Data    []models.Review `json:"data"`
	Summary reviews.Summary `json:"summary"`
}

// CreatedResponse reports the id of a new document.
type CreatedResponse struct {
	ID string `json:"id"`
}

type AddWatchlistRequest struct {
	ContentID string `json:"content_id" binding:"required"`
}

type WatchlistResponse struct {
	Data []models.WatchlistEntry `json:"data"`
}
