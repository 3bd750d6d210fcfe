package plan

import (
	"context"
	"sort"
	"sync"

	"taskhub/pkg/platform/sentinel"
)

// InMemoryStore keeps plans in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	plans map[planKey]Plan
}

type planKey struct {
	appAcronym string
	mvpName    string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{plans: make(map[planKey]Plan)}
}

func (s *InMemoryStore) Create(_ context.Context, plan Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := planKey{appAcronym: plan.AppAcronym, mvpName: plan.MVPName}
	if _, exists := s.plans[key]; exists {
		return sentinel.ErrDuplicate
	}
	s.plans[key] = plan
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, appAcronym, mvpName string) (Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[planKey{appAcronym: appAcronym, mvpName: mvpName}]
	if !ok {
		return Plan{}, sentinel.ErrNotFound
	}
	return plan, nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, appAcronym string) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var plans []Plan
	for key, plan := range s.plans {
		if key.appAcronym == appAcronym {
			plans = append(plans, plan)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].MVPName < plans[j].MVPName })
	return plans, nil
}
