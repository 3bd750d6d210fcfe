package application

import (
	"context"
	"sort"
	"sync"

	"taskhub/pkg/platform/sentinel"
)

// InMemoryStore keeps application records in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[string]Application
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{apps: make(map[string]Application)}
}

func (s *InMemoryStore) Create(_ context.Context, app Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.Acronym]; exists {
		return sentinel.ErrDuplicate
	}
	s.apps[app.Acronym] = app
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, acronym string) (Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[acronym]
	if !ok {
		return Application{}, sentinel.ErrNotFound
	}
	return app, nil
}

func (s *InMemoryStore) Update(_ context.Context, app Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.apps[app.Acronym]
	if !ok {
		return sentinel.ErrNotFound
	}
	// counter and dates are immutable through Update
	app.RNumber = existing.RNumber
	app.StartDate = existing.StartDate
	app.EndDate = existing.EndDate
	s.apps[app.Acronym] = app
	return nil
}

// IncrementRNumber advances the task-id counter and returns the new
// value. Not part of Store; only the task allocation path may call it.
func (s *InMemoryStore) IncrementRNumber(_ context.Context, acronym string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[acronym]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	app.RNumber++
	s.apps[acronym] = app
	return app.RNumber, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apps := make([]Application, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Acronym < apps[j].Acronym })
	return apps, nil
}
