package analytics

import (
	"context"
	"sync"
)

// InMemoryArchive collects events in memory. Used by tests and by
// deployments without an archive database.
type InMemoryArchive struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{}
}

func (a *InMemoryArchive) Append(_ context.Context, event Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

// Events returns a snapshot of everything appended so far.
func (a *InMemoryArchive) Events() []Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}
