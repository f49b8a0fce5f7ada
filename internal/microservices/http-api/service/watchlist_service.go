package service

import (
	"context"
	"fmt"

	"afriotv/internal/docpath"
	"afriotv/internal/docstore"
	"afriotv/internal/errbus"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/repository"

	"github.com/google/uuid"
)

type WatchlistService interface {
	List(ctx context.Context, caller docstore.Caller, uid string) ([]models.WatchlistEntry, error)
	// Add returns the existing entry with created=false when the content is
	// already on the list.
	Add(ctx context.Context, caller docstore.Caller, uid, contentID string) (*models.WatchlistEntry, bool, error)
	Remove(ctx context.Context, caller docstore.Caller, uid, entryID string) error
}

type watchlistService struct {
	watchlistRepo repository.WatchlistRepository
}

func NewWatchlistService(watchlistRepo repository.WatchlistRepository) WatchlistService {
	return &watchlistService{watchlistRepo: watchlistRepo}
}

func (s *watchlistService) List(ctx context.Context, caller docstore.Caller, uid string) ([]models.WatchlistEntry, error) {
	if _, err := docstore.Check(caller, errbus.OpList, docpath.Watchlist(uid)); err != nil {
		return nil, err
	}
	list, err := s.watchlistRepo.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.WatchlistEntry{}
	}
	return list, nil
}

func (s *watchlistService) Add(ctx context.Context, caller docstore.Caller, uid, contentID string) (*models.WatchlistEntry, bool, error) {
	if _, err := docstore.Check(caller, errbus.OpCreate, docpath.Watchlist(uid)); err != nil {
		return nil, false, err
	}
	if uuid.Validate(contentID) != nil {
		return nil, false, fmt.Errorf("%w: content_id must be a content id", ErrInvalidInput)
	}
	return s.watchlistRepo.Add(ctx, uid, contentID)
}

// Remove deletes an entry; removing a missing entry succeeds.
func (s *watchlistService) Remove(ctx context.Context, caller docstore.Caller, uid, entryID string) error {
	if _, err := docstore.Check(caller, errbus.OpDelete, docpath.WatchlistEntry(uid, entryID)); err != nil {
		return err
	}
	if uuid.Validate(entryID) != nil {
		return nil
	}
	return s.watchlistRepo.Remove(ctx, uid, entryID)
}
