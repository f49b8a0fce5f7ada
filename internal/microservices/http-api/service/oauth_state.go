package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const oauthStateTTL = 10 * time.Minute

var ErrUnknownState = errors.New("unknown or expired oauth state")

// StateStore keeps the PKCE verifier of a pending sign-in, keyed by the
// state parameter. Take consumes the entry.
type StateStore interface {
	Put(ctx context.Context, state, verifier string, ttl time.Duration) error
	Take(ctx context.Context, state string) (string, error)
}

type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func stateKey(state string) string { return "afriotv:oauth:state:" + state }

func (s *RedisStateStore) Put(ctx context.Context, state, verifier string, ttl time.Duration) error {
	if err := s.client.Set(ctx, stateKey(state), verifier, ttl).Err(); err != nil {
		return fmt.Errorf("store oauth state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Take(ctx context.Context, state string) (string, error) {
	v, err := s.client.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownState
	}
	if err != nil {
		return "", fmt.Errorf("load oauth state: %w", err)
	}
	return v, nil
}

type memoryState struct {
	verifier string
	expires  time.Time
}

// MemoryStateStore is used when Redis is unavailable. Pending sign-ins do
// not survive a restart.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryState
	now     func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{entries: make(map[string]memoryState), now: time.Now}
}

func (s *MemoryStateStore) Put(_ context.Context, state, verifier string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[state] = memoryState{verifier: verifier, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Take(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[state]
	delete(s.entries, state)
	if !ok || s.now().After(e.expires) {
		return "", ErrUnknownState
	}
	return e.verifier, nil
}
