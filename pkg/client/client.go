// Package client talks to the AfriOTV API. It implements the collaborator
// interfaces the client-side services depend on: the auth observer and
// token source for the session resolver, live document and collection
// references, document writers and the avatar upload transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"afriotv/internal/errbus"
	"afriotv/internal/session"
)

// APIError is a non-2xx response. Path and Operation are set when the
// access rules denied the request.
type APIError struct {
	Status    int
	Message   string
	Path      string
	Operation errbus.Operation
}

func (e *APIError) Error() string {
	if e.Status == http.StatusForbidden && e.Path != "" {
		return fmt.Sprintf("permission denied: %s on %s", e.Operation, e.Path)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Option func(*Client)

// WithHTTPClient replaces the default 10 second timeout client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore persists credentials across runs.
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	logger     *slog.Logger

	mu        sync.Mutex
	creds     *Credentials
	identity  *session.Identity
	nextObs   int
	observers map[int]func(*session.Identity)
}

// New builds a client for the API at baseURL (for example
// http://localhost:8080). Stored credentials, if any, are restored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    slog.Default(),
		observers: make(map[int]func(*session.Identity)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store != nil {
		creds, err := c.store.Load()
		if err == nil && creds != nil && creds.AccessToken != "" {
			c.creds = creds
			c.identity = identityFromToken(creds.AccessToken)
		}
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds == nil {
		return ""
	}
	return c.creds.AccessToken
}

// do sends a JSON request to the API and decodes the JSON response into
// out. An expired access token is refreshed once and the request retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	err := c.send(ctx, method, path, payload, out)
	if isExpired(err) && path != "/api/auth/refresh" {
		if _, rerr := c.refresh(ctx); rerr == nil {
			err = c.send(ctx, method, path, payload, out)
		}
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 300 {
		var body struct {
			Error     string           `json:"error"`
			Path      string           `json:"path"`
			Operation errbus.Operation `json:"operation"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: body.Error, Path: body.Path, Operation: body.Operation}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && apiErr.Message == "token has expired"
}
