package task

import (
	"context"
	"sort"
	"sync"

	"taskhub/internal/application"
	"taskhub/internal/plan"
	"taskhub/pkg/platform/sentinel"
)

// InMemoryStore keeps tasks in process memory, delegating application
// and plan lookups to their own memory stores so the counter lives
// with the application record.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]Task
	apps  *application.InMemoryStore
	plans *plan.InMemoryStore
}

func NewInMemoryStore(apps *application.InMemoryStore, plans *plan.InMemoryStore) *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]Task),
		apps:  apps,
		plans: plans,
	}
}

func (s *InMemoryStore) GetApplication(ctx context.Context, acronym string) (application.Application, error) {
	return s.apps.Get(ctx, acronym)
}

func (s *InMemoryStore) AllocateRNumber(ctx context.Context, acronym string) (int, error) {
	return s.apps.IncrementRNumber(ctx, acronym)
}

func (s *InMemoryStore) GetPlan(ctx context.Context, appAcronym, mvpName string) (plan.Plan, error) {
	return s.plans.Get(ctx, appAcronym, mvpName)
}

func (s *InMemoryStore) Insert(_ context.Context, t Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.ID]; exists {
		return sentinel.ErrDuplicate
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, sentinel.ErrNotFound
	}
	return t, nil
}

func (s *InMemoryStore) Transition(_ context.Context, id string, from, to State, owner, notes string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.State != from {
		return 0, nil
	}
	t.State = to
	t.Owner = owner
	t.Notes = notes
	s.tasks[id] = t
	return 1, nil
}

func (s *InMemoryStore) UpdateNotes(_ context.Context, id string, expected State, notes string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.State != expected {
		return 0, nil
	}
	t.Notes = notes
	s.tasks[id] = t
	return 1, nil
}

func (s *InMemoryStore) UpdatePlan(_ context.Context, id string, expected State, planRef, notes string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.State != expected {
		return 0, nil
	}
	t.Plan = planRef
	t.Notes = notes
	s.tasks[id] = t
	return 1, nil
}

func (s *InMemoryStore) ListByState(_ context.Context, appAcronym string, state State) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Summary
	for _, t := range s.tasks {
		if t.AppAcronym == appAcronym && t.State == state {
			out = append(out, Summary{ID: t.ID, Name: t.Name, State: t.State, Plan: t.Plan, Owner: t.Owner})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context, appAcronym string) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Summary
	for _, t := range s.tasks {
		if t.AppAcronym == appAcronym {
			out = append(out, Summary{ID: t.ID, Name: t.Name, State: t.State, Plan: t.Plan, Owner: t.Owner})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
