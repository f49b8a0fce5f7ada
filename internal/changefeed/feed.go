// Package changefeed signals that the data behind a document or collection
// path changed. Signals carry no payload; listeners re-read the path.
package changefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Feed publishes and delivers change signals keyed by path.
type Feed interface {
	Publish(ctx context.Context, paths ...string) error
	// Subscribe returns a channel that receives a signal after each change
	// to path. Bursts may be coalesced into one signal. The channel is
	// closed once ctx is done.
	Subscribe(ctx context.Context, path string) (<-chan struct{}, error)
	Close() error
}

// hub fans local signals out to subscribers of a path.
type hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]chan struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[uint64]chan struct{})}
}

func (h *hub) add(ctx context.Context, path string) <-chan struct{} {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[path] == nil {
		h.subs[path] = make(map[uint64]chan struct{})
	}
	h.subs[path][id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[path], id)
		if len(h.subs[path]) == 0 {
			delete(h.subs, path)
		}
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

func (h *hub) signal(path string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[path] {
		select {
		case ch <- struct{}{}:
		default:
			// a signal is already pending
		}
	}
}

func (h *hub) len(path string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[path])
}

// Memory is a single-process Feed.
type Memory struct {
	hub *hub
}

func NewMemory() *Memory {
	return &Memory{hub: newHub()}
}

func (m *Memory) Publish(_ context.Context, paths ...string) error {
	for _, p := range paths {
		m.hub.signal(p)
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, path string) (<-chan struct{}, error) {
	return m.hub.add(ctx, path), nil
}

func (m *Memory) Close() error { return nil }

// Open returns the feed named by kind: "postgres", "memory" or "redis".
// rdb is only used by the redis feed.
func Open(ctx context.Context, kind, databaseURL string, rdb *redis.Client, logger *slog.Logger) (Feed, error) {
	switch kind {
	case "postgres":
		return NewPostgres(ctx, databaseURL, logger)
	case "memory":
		return NewMemory(), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis change feed needs a redis client")
		}
		return NewRedis(rdb, logger), nil
	default:
		return nil, fmt.Errorf("unknown change feed %q", kind)
	}
}
