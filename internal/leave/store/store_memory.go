package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"crewops/internal/leave"
	"crewops/internal/workflow"
	"crewops/pkg/domain"
	"crewops/pkg/platform/sentinel"
)

// MemoryStore backs unit tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.LeaveID]leave.Request
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[domain.LeaveID]leave.Request)}
}

func (s *MemoryStore) Create(_ context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return fmt.Errorf("leave request %s: %w", req.ID, sentinel.ErrConflict)
	}
	s.requests[req.ID] = req
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.LeaveID) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return leave.Request{}, fmt.Errorf("leave request %s: %w", id, sentinel.ErrNotFound)
	}
	return req, nil
}

func (s *MemoryStore) Update(_ context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return fmt.Errorf("leave request %s: %w", req.ID, sentinel.ErrNotFound)
	}
	s.requests[req.ID] = req
	return nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, status workflow.State) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []leave.Request
	for _, req := range s.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
