package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"afriotv/internal/docpath"
	"afriotv/internal/docstore"
	"afriotv/internal/errbus"
	"afriotv/internal/microservices/http-api/dto"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/repository"
	"afriotv/internal/storage"

	"gorm.io/gorm"
)

var ErrStorageDisabled = errors.New("avatar storage is not configured")

type ProfileService interface {
	Get(ctx context.Context, caller docstore.Caller, uid string) (*models.User, error)
	Update(ctx context.Context, caller docstore.Caller, uid string, req dto.UpdateProfileRequest) (*models.User, error)
	UploadAvatar(ctx context.Context, caller docstore.Caller, uid, filename string, r io.Reader, size int64, contentType string) (*models.User, error)
}

type profileService struct {
	userRepo repository.UserRepository
	avatars  storage.AvatarStore
	logger   *slog.Logger
}

// NewProfileService builds the profile service. avatars may be nil, in
// which case uploads fail with ErrStorageDisabled.
func NewProfileService(userRepo repository.UserRepository, avatars storage.AvatarStore, logger *slog.Logger) ProfileService {
	return &profileService{userRepo: userRepo, avatars: avatars, logger: logger}
}

func (s *profileService) Get(ctx context.Context, caller docstore.Caller, uid string) (*models.User, error) {
	if _, err := docstore.Check(caller, errbus.OpGet, docpath.User(uid)); err != nil {
		return nil, err
	}
	u, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *profileService) Update(ctx context.Context, caller docstore.Caller, uid string, req dto.UpdateProfileRequest) (*models.User, error) {
	if _, err := docstore.Check(caller, errbus.OpUpdate, docpath.User(uid)); err != nil {
		return nil, err
	}
	fields := repository.ProfileFields{PhotoURL: req.PhotoURL}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		fields.DisplayName = &name
	}
	return s.update(ctx, uid, fields)
}

// UploadAvatar stores the image and points the profile at it.
func (s *profileService) UploadAvatar(ctx context.Context, caller docstore.Caller, uid, filename string, r io.Reader, size int64, contentType string) (*models.User, error) {
	if _, err := docstore.Check(caller, errbus.OpUpdate, docpath.User(uid)); err != nil {
		return nil, err
	}
	if s.avatars == nil {
		return nil, ErrStorageDisabled
	}

	url, err := s.avatars.Upload(ctx, uid, filename, r, size, contentType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("avatar_uploaded", "uid", uid, "size", size, "url", url)
	return s.update(ctx, uid, repository.ProfileFields{PhotoURL: &url})
}

func (s *profileService) update(ctx context.Context, uid string, fields repository.ProfileFields) (*models.User, error) {
	u, err := s.userRepo.UpdateProfile(ctx, uid, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
