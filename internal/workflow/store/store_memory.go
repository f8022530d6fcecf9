package store

import (
	"context"
	"sort"
	"sync"

	"crewops/internal/workflow"
	"crewops/pkg/domain"
)

// MemoryStore is the in-memory event log used by unit tests and local
// development. Same insert-only contract as the postgres store.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[domain.ProcessID][]workflow.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[domain.ProcessID][]workflow.Event)}
}

func (s *MemoryStore) Append(_ context.Context, event workflow.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ProcessID] = append(s.events[event.ProcessID], event)
	return nil
}

func (s *MemoryStore) ListByProcess(_ context.Context, processID domain.ProcessID) ([]workflow.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.events[processID]
	out := make([]workflow.Event, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

// Count reports the total number of recorded events. Test helper.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, events := range s.events {
		n += len(events)
	}
	return n
}
