package funnel

import (
	"context"
	"sync"
	"time"

	"funnelgate/pkg/platform/sentinel"
)

// Handoff is the transient "visitor is mid-redirect" record: what we knew
// about them at the moment they left for the quiz. It feeds the autofill
// endpoint and disappears once read or expired.
type Handoff struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Loading   bool   `json:"loading"`
	Method    string `json:"method"`
	Timestamp int64  `json:"timestamp"`
}

// HandoffStore caches handoff records by visitor id.
type HandoffStore interface {
	Set(ctx context.Context, vid string, record Handoff, ttl time.Duration) error
	// Take returns and deletes the record; autofill data is single-use.
	Take(ctx context.Context, vid string) (Handoff, error)
}

// InMemoryHandoffStore is the test and no-Redis fallback implementation.
type InMemoryHandoffStore struct {
	mu      sync.Mutex
	entries map[string]handoffEntry
}

type handoffEntry struct {
	record    Handoff
	expiresAt time.Time
}

func NewInMemoryHandoffStore() *InMemoryHandoffStore {
	return &InMemoryHandoffStore{entries: make(map[string]handoffEntry)}
}

func (s *InMemoryHandoffStore) Set(_ context.Context, vid string, record Handoff, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[vid] = handoffEntry{record: record, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemoryHandoffStore) Take(_ context.Context, vid string) (Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[vid]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, vid)
		return Handoff{}, sentinel.ErrNotFound
	}
	delete(s.entries, vid)
	return entry.record, nil
}
