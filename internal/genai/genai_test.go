package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"afriotv/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out    string
	err    error
	prompt string
	schema json.RawMessage
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (json.RawMessage, error) {
	f.prompt = req.Prompt
	f.schema = req.Schema
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.out), nil
}

func TestRecommend_RendersPrompt(t *testing.T) {
	gen := &fakeGenerator{out: `{"recommendations":["King of Boys","Blood Sisters"]}`}
	flows := NewFlows(gen)

	out, err := flows.Recommend(context.Background(), RecommendationsInput{
		ViewingHistory: []string{"Anikulapo", "Shanty Town"},
		Preferences:    "crime dramas",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"King of Boys", "Blood Sisters"}, out.Recommendations)
	assert.Contains(t, gen.prompt, "Viewing History: Anikulapo, Shanty Town")
	assert.Contains(t, gen.prompt, "Preferences: crime dramas")
	assert.JSONEq(t, string(outputSchema), string(gen.schema))
}

func TestRecommend_RejectsEmptyHistory(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := NewFlows(gen).Recommend(context.Background(), RecommendationsInput{})

	assert.Error(t, err)
	assert.Empty(t, gen.prompt)
}

func TestSimilar(t *testing.T) {
	gen := &fakeGenerator{out: `{"recommendations":[]}`}

	out, err := NewFlows(gen).Similar(context.Background(), SimilarInput{Title: "Gangs of Lagos"})

	require.NoError(t, err)
	assert.Empty(t, out.Recommendations)
	assert.Contains(t, gen.prompt, "Title: Gangs of Lagos")
}

func TestSimilar_InvalidOutput(t *testing.T) {
	gen := &fakeGenerator{out: `{"titles":["x"]}`}

	_, err := NewFlows(gen).Similar(context.Background(), SimilarInput{Title: "x"})

	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestFlows_PassesGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: ErrRateLimited}

	_, err := NewFlows(gen).Similar(context.Background(), SimilarInput{Title: "x"})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "429")
}

func testClient(url string, retries int) *Client {
	return NewClient(config.GenAIConfig{
		URL:          url,
		APIKey:       "key",
		Model:        "test-model",
		Timeout:      time.Second,
		RatePerMin:   600,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "hello", req.Prompt)
		w.Write([]byte(`{"output":{"recommendations":["a"]}}`))
	}))
	defer srv.Close()

	out, err := testClient(srv.URL, 0).Generate(context.Background(), Request{Prompt: "hello"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"recommendations":["a"]}`, string(out))
}

func TestClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 1).Generate(context.Background(), Request{Prompt: "p"})

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"output":{"recommendations":[]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Generate(context.Background(), Request{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad prompt", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Generate(context.Background(), Request{Prompt: "p"})

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "HTTP 400"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Disabled(t *testing.T) {
	_, err := testClient("", 0).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrDisabled)
}
