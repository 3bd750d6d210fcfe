package identity

import "context"

// Store is the persistence boundary for users, groups and memberships.
// Implementations return sentinel.ErrNotFound / sentinel.ErrDuplicate for the
// corresponding facts; the service translates them into domain errors.
type Store interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, username string) (User, error)
	UpdateUser(ctx context.Context, user User) error
	ListUsers(ctx context.Context) ([]User, error)

	CreateGroup(ctx context.Context, name string) error
	ListGroups(ctx context.Context) ([]string, error)

	SetGroups(ctx context.Context, username string, groups []string) error
	HasGroup(ctx context.Context, username, group string) (bool, error)
}
