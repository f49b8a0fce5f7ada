package service

import (
	"context"
	"testing"

	"afriotv/internal/docstore"
	"afriotv/internal/microservices/http-api/dto"
	"afriotv/internal/microservices/http-api/models"
	"afriotv/internal/microservices/http-api/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviewList_SummaryFallsBackToItemRating(t *testing.T) {
	contents := new(repotest.ContentRepository)
	reviewsRepo := new(repotest.ReviewRepository)
	svc := NewReviewService(reviewsRepo, NewContentService(contents))
	ctx := context.Background()

	contents.On("GetByID", ctx, contentID).Return(&models.Content{ID: contentID, Rating: 8.1}, nil)
	reviewsRepo.On("ListByContent", ctx, contentID).Return(nil, nil).Once()

	res, err := svc.List(ctx, contentID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.Count)
	assert.Equal(t, 8.1, res.Summary.Average)
	assert.NotNil(t, res.Data)

	reviewsRepo.On("ListByContent", ctx, contentID).Return([]models.Review{{Rating: 4}, {Rating: 5}}, nil)

	res, err = svc.List(ctx, contentID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.Count)
	assert.Equal(t, 4.5, res.Summary.Average)
}

func TestReviewCreate_MustWriteAsSelf(t *testing.T) {
	reviewsRepo := new(repotest.ReviewRepository)
	svc := NewReviewService(reviewsRepo, NewContentService(new(repotest.ContentRepository)))

	_, err := svc.Create(context.Background(), docstore.Caller{UID: aliceID}, contentID, dto.CreateReviewRequest{
		UserID:  bobID,
		Rating:  5,
		Comment: "Loved every minute of it",
	})

	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)
	reviewsRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewCreate_Success(t *testing.T) {
	contents := new(repotest.ContentRepository)
	reviewsRepo := new(repotest.ReviewRepository)
	svc := NewReviewService(reviewsRepo, NewContentService(contents))
	ctx := context.Background()

	contents.On("GetByID", ctx, contentID).Return(&models.Content{ID: contentID}, nil)
	reviewsRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Create(ctx, docstore.Caller{UID: aliceID}, contentID, dto.CreateReviewRequest{
		UserID:  aliceID,
		Rating:  4,
		Comment: "  Sharp writing and a great cast  ",
	})

	require.NoError(t, err)
	assert.Equal(t, "Sharp writing and a great cast", review.Comment)
	assert.Equal(t, "Anonymous", review.DisplayName)
	assert.Equal(t, contentID, review.ContentID)
}

func TestReviewCreate_ShortComment(t *testing.T) {
	svc := NewReviewService(new(repotest.ReviewRepository), NewContentService(new(repotest.ContentRepository)))

	_, err := svc.Create(context.Background(), docstore.Caller{UID: aliceID}, contentID, dto.CreateReviewRequest{
		UserID:  aliceID,
		Rating:  4,
		Comment: "meh",
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReviewCreate_PaddedShortCommentRejected(t *testing.T) {
	reviewsRepo := new(repotest.ReviewRepository)
	svc := NewReviewService(reviewsRepo, NewContentService(new(repotest.ContentRepository)))

	_, err := svc.Create(context.Background(), docstore.Caller{UID: aliceID}, contentID, dto.CreateReviewRequest{
		UserID:  aliceID,
		Rating:  4,
		Comment: "ok        ",
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
	reviewsRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
