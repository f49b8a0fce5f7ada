package service

import (
	"context"
	"errors"
	"fmt"

	"afriotv/internal/catalog"
	"afriotv/internal/docpath"
	"afriotv/internal/docstore"
	"afriotv/internal/errbus"
	"afriotv/internal/microservices/http-api/dto"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidInput    = errors.New("invalid input")
)

const searchLimit = 50

type ContentService interface {
	List(ctx context.Context, q dto.ContentQuery) ([]models.Content, error)
	Get(ctx context.Context, id string) (*models.Content, error)
	Search(ctx context.Context, query string) ([]models.Content, error)
	Related(ctx context.Context, id string) ([]models.Content, error)
	Player(ctx context.Context, id string) (*dto.PlayerResponse, error)
	Create(ctx context.Context, caller docstore.Caller, item catalog.Item) (*models.Content, error)
}

type contentService struct {
	contentRepo repository.ContentRepository
}

func NewContentService(contentRepo repository.ContentRepository) ContentService {
	return &contentService{contentRepo: contentRepo}
}

func (s *contentService) List(ctx context.Context, q dto.ContentQuery) ([]models.Content, error) {
	return s.contentRepo.List(ctx, repository.ContentFilter{
		Type:     q.Type,
		Genre:    q.Genre,
		Trending: q.Trending,
		Limit:    q.Limit,
	})
}

func (s *contentService) Get(ctx context.Context, id string) (*models.Content, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrContentNotFound
	}
	c, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *contentService) Search(ctx context.Context, query string) ([]models.Content, error) {
	return s.contentRepo.Search(ctx, query, searchLimit)
}

// Related lists items that share a genre with id.
func (s *contentService) Related(ctx context.Context, id string) ([]models.Content, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.contentRepo.Related(ctx, c, catalog.RelatedLimit)
}

func (s *contentService) Player(ctx context.Context, id string) (*dto.PlayerResponse, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := s.contentRepo.Related(ctx, c, catalog.RelatedLimit)
	if err != nil {
		return nil, err
	}
	if related == nil {
		related = []models.Content{}
	}
	return &dto.PlayerResponse{Content: c, Related: related}, nil
}

// Create adds an item through the admin form. Items are never edited
// afterwards.
func (s *contentService) Create(ctx context.Context, caller docstore.Caller, item catalog.Item) (*models.Content, error) {
	if _, err := docstore.Check(caller, errbus.OpCreate, docpath.Content()); err != nil {
		return nil, err
	}
	if err := catalog.Validate(item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c := dto.FromItemToModel(item)
	if err := s.contentRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
