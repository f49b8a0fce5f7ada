// Package servicetest provides testify mocks of the service interfaces.
package servicetest

import (
	"context"
	"io"

	"afriotv/internal/catalog"
	"afriotv/internal/docstore"
	"afriotv/internal/microservices/http-api/dto"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/service"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	args := m.Called(ctx, email, password, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.TokenPair, *models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) IssueTokens(ctx context.Context, user *models.User) (*service.TokenPair, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

type MockOAuthService struct {
	mock.Mock
}

func (m *MockOAuthService) LoginURL(ctx context.Context) (string, string, error) {
	args := m.Called(ctx)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockOAuthService) Callback(ctx context.Context, state, code string) (*service.TokenPair, *models.User, error) {
	args := m.Called(ctx, state, code)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*models.User), args.Error(2)
}

type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) List(ctx context.Context, q dto.ContentQuery) ([]models.Content, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Content), args.Error(1)
}

func (m *MockContentService) Get(ctx context.Context, id string) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockContentService) Search(ctx context.Context, query string) ([]models.Content, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Content), args.Error(1)
}

func (m *MockContentService) Related(ctx context.Context, id string) ([]models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Content), args.Error(1)
}

func (m *MockContentService) Player(ctx context.Context, id string) (*dto.PlayerResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PlayerResponse), args.Error(1)
}

func (m *MockContentService) Create(ctx context.Context, caller docstore.Caller, item catalog.Item) (*models.Content, error) {
	args := m.Called(ctx, caller, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, contentID string) (*dto.ReviewListResponse, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewListResponse), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, caller docstore.Caller, contentID string, req dto.CreateReviewRequest) (*models.Review, error) {
	args := m.Called(ctx, caller, contentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

type MockWatchlistService struct {
	mock.Mock
}

func (m *MockWatchlistService) List(ctx context.Context, caller docstore.Caller, uid string) ([]models.WatchlistEntry, error) {
	args := m.Called(ctx, caller, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WatchlistEntry), args.Error(1)
}

func (m *MockWatchlistService) Add(ctx context.Context, caller docstore.Caller, uid, contentID string) (*models.WatchlistEntry, bool, error) {
	args := m.Called(ctx, caller, uid, contentID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.WatchlistEntry), args.Bool(1), args.Error(2)
}

func (m *MockWatchlistService) Remove(ctx context.Context, caller docstore.Caller, uid, entryID string) error {
	args := m.Called(ctx, caller, uid, entryID)
	return args.Error(0)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, caller docstore.Caller, uid string) (*models.User, error) {
	args := m.Called(ctx, caller, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, caller docstore.Caller, uid string, req dto.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, caller, uid, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockProfileService) UploadAvatar(ctx context.Context, caller docstore.Caller, uid, filename string, r io.Reader, size int64, contentType string) (*models.User, error) {
	args := m.Called(ctx, caller, uid, filename, r, size, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
