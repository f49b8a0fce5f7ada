package service

import (
	"context"
	"fmt"
	"strings"

	"afriotv/internal/docpath"
	"afriotv/internal/docstore"
	"afriotv/internal/errbus"
	"afriotv/internal/live"
	"afriotv/internal/microservices/http-api/dto"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/repository"
	"afriotv/internal/reviews"
)

type ReviewService interface {
	List(ctx context.Context, contentID string) (*dto.ReviewListResponse, error)
	Create(ctx context.Context, caller docstore.Caller, contentID string, req dto.CreateReviewRequest) (*models.Review, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	content    ContentService
}

func NewReviewService(reviewRepo repository.ReviewRepository, content ContentService) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, content: content}
}

// List returns the reviews newest first with their average, falling back
// to the item's own rating when there are none.
func (s *reviewService) List(ctx context.Context, contentID string) (*dto.ReviewListResponse, error) {
	c, err := s.content.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	list, err := s.reviewRepo.ListByContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Review{}
	}

	docs := make([]live.Doc[reviews.Review], 0, len(list))
	for _, r := range list {
		docs = append(docs, live.Doc[reviews.Review]{ID: r.ID, Data: reviews.Review{UserID: r.UserID, Rating: r.Rating}})
	}
	return &dto.ReviewListResponse{
		Data:    list,
		Summary: reviews.Summarize(docs, c.Rating),
	}, nil
}

// Create stores a review written by the caller. One review per user is
// not enforced here.
func (s *reviewService) Create(ctx context.Context, caller docstore.Caller, contentID string, req dto.CreateReviewRequest) (*models.Review, error) {
	p, err := docpath.Parse(docpath.Reviews(contentID))
	if err != nil {
		return nil, err
	}
	if err := docstore.Authorize(docstore.Request{
		Caller:    caller,
		Operation: errbus.OpCreate,
		Path:      p,
		AuthorUID: req.UserID,
	}); err != nil {
		return nil, err
	}
	comment := strings.TrimSpace(req.Comment)
	if err := reviews.Validate(reviews.Input{Rating: req.Rating, Comment: comment}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.content.Get(ctx, contentID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = reviews.AnonymousName
	}
	review := &models.Review{
		ContentID:   contentID,
		UserID:      req.UserID,
		Rating:      req.Rating,
		Comment:     comment,
		DisplayName: name,
		PhotoURL:    req.PhotoURL,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}
