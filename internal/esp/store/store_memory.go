package store

import (
	"context"
	"fmt"
	"sync"

	"crewops/internal/esp"
	"crewops/pkg/domain"
	"crewops/pkg/platform/sentinel"
)

// MemoryStore backs unit tests and local development.
type MemoryStore struct {
	mu          sync.RWMutex
	packages    map[domain.PackageID]esp.Package
	simulations map[domain.SimulationID]esp.SimulationResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		packages:    make(map[domain.PackageID]esp.Package),
		simulations: make(map[domain.SimulationID]esp.SimulationResult),
	}
}

func (s *MemoryStore) Create(_ context.Context, pkg esp.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.packages[pkg.ID]; exists {
		return fmt.Errorf("esp package %s: %w", pkg.ID, sentinel.ErrConflict)
	}
	s.packages[pkg.ID] = pkg
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id domain.PackageID) (esp.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pkg, ok := s.packages[id]
	if !ok {
		return esp.Package{}, fmt.Errorf("esp package %s: %w", id, sentinel.ErrNotFound)
	}
	return pkg, nil
}

func (s *MemoryStore) Update(_ context.Context, pkg esp.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[pkg.ID]; !ok {
		return fmt.Errorf("esp package %s: %w", pkg.ID, sentinel.ErrNotFound)
	}
	s.packages[pkg.ID] = pkg
	return nil
}

func (s *MemoryStore) SaveSimulation(_ context.Context, result esp.SimulationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.simulations[result.ID]; exists {
		return fmt.Errorf("simulation %s: %w", result.ID, sentinel.ErrConflict)
	}
	s.simulations[result.ID] = result
	return nil
}

func (s *MemoryStore) GetSimulation(_ context.Context, id domain.SimulationID) (esp.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.simulations[id]
	if !ok {
		return esp.SimulationResult{}, fmt.Errorf("simulation %s: %w", id, sentinel.ErrNotFound)
	}
	return result, nil
}

func (s *MemoryStore) CountSimulationsByProject(_ context.Context, projectID domain.ProjectID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, result := range s.simulations {
		if result.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}
