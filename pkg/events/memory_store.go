package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryKey struct {
	user uuid.UUID
	kind Kind
}

// MemoryStore keeps events in process memory. Suitable for tests and
// single-instance deployments without persistence needs.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[memoryKey][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[memoryKey][]Event)}
}

func (s *MemoryStore) Insert(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey{user: e.UserID, kind: e.Kind}
	s.events[k] = append(s.events[k], e)
	return nil
}

func (s *MemoryStore) Last(_ context.Context, userID uuid.UUID, kind Kind) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		last  Event
		found bool
	)
	for _, e := range s.events[memoryKey{user: userID, kind: kind}] {
		if !found || e.Timestamp.After(last.Timestamp) {
			last, found = e, true
		}
	}
	if !found {
		return Event{}, ErrNotFound
	}
	return last, nil
}

func (s *MemoryStore) CountSince(_ context.Context, userID uuid.UUID, kind Kind, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.events[memoryKey{user: userID, kind: kind}] {
		if !e.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}
