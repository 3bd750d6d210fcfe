package identity

import (
	"context"
	"sort"
	"sync"

	"taskhub/pkg/platform/sentinel"
)

// InMemoryStore keeps users and groups in process memory. Used by tests and
// by the dev server when no database is configured.
type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[string]User
	groups map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:  make(map[string]User),
		groups: make(map[string]struct{}),
	}
}

func (s *InMemoryStore) CreateUser(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return sentinel.ErrDuplicate
	}
	s.users[user.Username] = cloneUser(user)
	return nil
}

func (s *InMemoryStore) GetUser(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *InMemoryStore) UpdateUser(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.Username]
	if !ok {
		return sentinel.ErrNotFound
	}
	user.Groups = existing.Groups
	s.users[user.Username] = cloneUser(user)
	return nil
}

func (s *InMemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *InMemoryStore) CreateGroup(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[name]; exists {
		return sentinel.ErrDuplicate
	}
	s.groups[name] = struct{}{}
	return nil
}

func (s *InMemoryStore) ListGroups(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make([]string, 0, len(s.groups))
	for name := range s.groups {
		groups = append(groups, name)
	}
	sort.Strings(groups)
	return groups, nil
}

func (s *InMemoryStore) SetGroups(_ context.Context, username string, groups []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return sentinel.ErrNotFound
	}
	for _, group := range groups {
		if _, exists := s.groups[group]; !exists {
			return sentinel.ErrNotFound
		}
	}
	user.Groups = append([]string(nil), groups...)
	s.users[username] = user
	return nil
}

func (s *InMemoryStore) HasGroup(_ context.Context, username, group string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return false, nil
	}
	for _, g := range user.Groups {
		if g == group {
			return true, nil
		}
	}
	return false, nil
}

func cloneUser(user User) User {
	user.Groups = append([]string(nil), user.Groups...)
	return user
}
