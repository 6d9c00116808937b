package session

import (
	"context"
	"sync"
	"time"

	"funnelgate/pkg/platform/sentinel"
)

// Store caches session tokens keyed by visitor/tab id. The cache is the
// session-storage analogue: a token lives for the configured TTL and is
// never explicitly destroyed.
type Store interface {
	Get(ctx context.Context, vid string) (string, error)
	Set(ctx context.Context, vid, token string, ttl time.Duration) error
}

// InMemoryStore is the test and no-Redis fallback implementation.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *InMemoryStore) Get(_ context.Context, vid string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[vid]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return "", sentinel.ErrNotFound
	}
	return entry.token, nil
}

func (s *InMemoryStore) Set(_ context.Context, vid, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[vid] = memoryEntry{token: token, expiresAt: time.Now().Add(ttl)}
	return nil
}
