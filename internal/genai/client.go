// Package genai runs the recommendation prompts against a hosted model
// endpoint.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"afriotv/internal/config"

	"golang.org/x/time/rate"
)

const maxDelay = 30 * time.Second

var (
	// ErrRateLimited is returned when the model endpoint keeps answering
	// 429.
	ErrRateLimited = errors.New("HTTP 429: model rate limit reached")
	ErrDisabled    = errors.New("recommendations are not configured")
)

// Request is the body sent to the prompt endpoint.
type Request struct {
	Model  string          `json:"model"`
	Prompt string          `json:"prompt"`
	Schema json.RawMessage `json:"schema"`
}

type response struct {
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error,omitempty"`
}

// Generator runs one prompt and returns the structured output.
type Generator interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}

// Client calls the prompt endpoint with rate limiting and retries.
type Client struct {
	url          string
	apiKey       string
	model        string
	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

func NewClient(cfg config.GenAIConfig, logger *slog.Logger) *Client {
	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = 15
	}
	return &Client{
		url:          cfg.URL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		rateLimiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.url == "" {
		return nil, ErrDisabled
	}
	if req.Model == "" {
		req.Model = c.model
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	var lastErr error
	delay := c.retryBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		out, retryAfter, err := c.do(ctx, body)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxRetries {
			break
		}
		if retryAfter > 0 {
			delay = retryAfter
		}
		c.logger.Warn("genai_retry", "attempt", attempt+1, "max_retries", c.maxRetries, "delay", delay.String(), "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxDelay)
	}
	return nil, lastErr
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) do(ctx context.Context, body []byte) (json.RawMessage, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var wait time.Duration
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(s) * time.Second
		}
		return nil, wait, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, 0, &statusError{code: resp.StatusCode, body: string(respBody)}
	}

	var r response
	if err := json.Unmarshal(respBody, &r); err != nil {
		return nil, 0, &statusError{code: resp.StatusCode, body: "malformed response"}
	}
	if r.Error != "" {
		return nil, 0, fmt.Errorf("model error: %s", r.Error)
	}
	return r.Output, 0, nil
}
