package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps the trail in process memory. Default when no database is
// configured, and the fake in worker and service tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]Event)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.IdentityID] = append(s.events[event.IdentityID], event)
	return nil
}

func (s *MemoryStore) ListByIdentity(_ context.Context, identityID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[identityID]...), nil
}
