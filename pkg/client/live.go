package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"afriotv/internal/catalog"
	"afriotv/internal/docpath"
	"afriotv/internal/errbus"
	"afriotv/internal/live"
	"afriotv/internal/reviews"
	"afriotv/internal/session"
	"afriotv/internal/watchlist"

	"github.com/gorilla/websocket"
)

// LiveError is an error frame sent by the server before it closes a live
// query, typically a permission denial.
type LiveError struct {
	Path      string
	Operation errbus.Operation
	Message   string
}

func (e *LiveError) Error() string {
	return fmt.Sprintf("live query %s: %s", e.Path, e.Message)
}

type wireDoc struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

type wireFrame struct {
	Type      string           `json:"type"`
	Path      string           `json:"path"`
	Docs      []wireDoc        `json:"docs"`
	Doc       json.RawMessage  `json:"doc"`
	Operation errbus.Operation `json:"operation"`
	Error     string           `json:"error"`
}

// liveRef is a document or collection reference served by /ws/live.
type liveRef[T any] struct {
	client *Client
	path   string
	decode func(*wireFrame) (T, error)
}

func (r *liveRef[T]) Path() string { return r.path }

// Subscribe opens one websocket per subscription. Snapshots are delivered
// in order on a single goroutine; the first failure ends the subscription.
func (r *liveRef[T]) Subscribe(onData func(T), onError func(error)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu   sync.Mutex
		conn *websocket.Conn
	)

	go func() {
		c, err := r.client.dialLive(ctx, r.path)
		if err != nil {
			if ctx.Err() == nil {
				onError(err)
			}
			return
		}
		mu.Lock()
		if ctx.Err() != nil {
			mu.Unlock()
			c.Close()
			return
		}
		conn = c
		mu.Unlock()

		for {
			var f wireFrame
			if err := c.ReadJSON(&f); err != nil {
				if ctx.Err() == nil {
					onError(err)
				}
				return
			}
			if f.Type == "error" {
				if ctx.Err() == nil {
					onError(&LiveError{Path: f.Path, Operation: f.Operation, Message: f.Error})
				}
				return
			}
			v, err := r.decode(&f)
			if err != nil {
				if ctx.Err() == nil {
					onError(err)
				}
				return
			}
			if ctx.Err() != nil {
				return
			}
			onData(v)
		}
	}()

	return func() {
		cancel()
		mu.Lock()
		defer mu.Unlock()
		if conn != nil {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		}
	}
}

func (c *Client) liveURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/live"
	u.RawQuery = url.Values{"path": {path}}.Encode()
	return u.String(), nil
}

func (c *Client) dialLive(ctx context.Context, path string) (*websocket.Conn, error) {
	target, err := c.liveURL(path)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if token := c.accessToken(); token != "" {
		header.Add("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil && resp.StatusCode >= 300 {
			defer resp.Body.Close()
			return nil, decodeResponse(resp, nil)
		}
		return nil, fmt.Errorf("connect live query: %w", err)
	}
	return conn, nil
}

func collectionRef[T any](c *Client, path string) live.Subscribable[[]live.Doc[T]] {
	return &liveRef[[]live.Doc[T]]{
		client: c,
		path:   path,
		decode: func(f *wireFrame) ([]live.Doc[T], error) {
			out := make([]live.Doc[T], 0, len(f.Docs))
			for _, d := range f.Docs {
				var v T
				if err := json.Unmarshal(d.Data, &v); err != nil {
					return nil, fmt.Errorf("decode %s/%s: %w", f.Path, d.ID, err)
				}
				out = append(out, live.Doc[T]{ID: d.ID, Data: v})
			}
			return out, nil
		},
	}
}

// documentRef yields nil while the document does not exist.
func documentRef[T any](c *Client, path string) live.Subscribable[*T] {
	return &liveRef[*T]{
		client: c,
		path:   path,
		decode: func(f *wireFrame) (*T, error) {
			if len(f.Doc) == 0 || string(f.Doc) == "null" {
				return nil, nil
			}
			v := new(T)
			if err := json.Unmarshal(f.Doc, v); err != nil {
				return nil, fmt.Errorf("decode %s: %w", f.Path, err)
			}
			return v, nil
		},
	}
}

func (c *Client) UserProfile(uid string) live.Subscribable[*session.UserProfile] {
	return documentRef[session.UserProfile](c, docpath.User(uid))
}

func (c *Client) Watchlist(uid string) live.Subscribable[[]live.Doc[watchlist.Entry]] {
	return collectionRef[watchlist.Entry](c, docpath.Watchlist(uid))
}

func (c *Client) Reviews(contentID string) live.Subscribable[[]live.Doc[reviews.Review]] {
	return collectionRef[reviews.Review](c, docpath.Reviews(contentID))
}

// Catalog follows the whole content collection.
func (c *Client) Catalog() live.Subscribable[[]live.Doc[catalog.Item]] {
	return collectionRef[catalog.Item](c, docpath.Content())
}

func (c *Client) ContentItem(id string) live.Subscribable[*catalog.Item] {
	return documentRef[catalog.Item](c, docpath.ContentDoc(id))
}
