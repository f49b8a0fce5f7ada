package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"afriotv/internal/genai"

	"github.com/stretchr/testify/assert"
)

type fakeRecommender struct {
	out  *genai.Output
	err  error
	got  genai.RecommendationsInput
	like string
}

func (f *fakeRecommender) Recommend(_ context.Context, in genai.RecommendationsInput) (*genai.Output, error) {
	f.got = in
	return f.out, f.err
}

func (f *fakeRecommender) Similar(_ context.Context, in genai.SimilarInput) (*genai.Output, error) {
	f.like = in.Title
	return f.out, f.err
}

func TestRecommendations(t *testing.T) {
	fake := &fakeRecommender{out: &genai.Output{Recommendations: []string{"Citation", "Lionheart"}}}
	router := setupRouter()
	NewAIHandler(fake, time.Second).RegisterRoutes(router.Group("/ai"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/ai/recommendations", map[string]any{
		"viewingHistory": []string{"King of Boys"},
		"preferences":    "thrillers",
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recommendations":["Citation","Lionheart"]}`, w.Body.String())
	assert.Equal(t, []string{"King of Boys"}, fake.got.ViewingHistory)
	assert.Equal(t, "thrillers", fake.got.Preferences)
}

func TestRecommendations_EmptyHistory(t *testing.T) {
	router := setupRouter()
	NewAIHandler(&fakeRecommender{}, time.Second).RegisterRoutes(router.Group("/ai"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/ai/recommendations", map[string]any{"viewingHistory": []string{}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimilar_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rate limited", genai.ErrRateLimited, http.StatusTooManyRequests},
		{"disabled", genai.ErrDisabled, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRecommender{err: tt.err}
			router := setupRouter()
			NewAIHandler(fake, time.Second).RegisterRoutes(router.Group("/ai"))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, jsonRequest("POST", "/ai/similar", map[string]string{"title": "Lionheart"}))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "Lionheart", fake.like)
		})
	}
}

func TestRateLimitedBodyMentions429(t *testing.T) {
	router := setupRouter()
	NewAIHandler(&fakeRecommender{err: genai.ErrRateLimited}, time.Second).RegisterRoutes(router.Group("/ai"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest("POST", "/ai/similar", map[string]string{"title": "Lionheart"}))

	assert.Contains(t, w.Body.String(), "429")
}
