package task

import (
	"context"

	"taskhub/internal/application"
	"taskhub/internal/plan"
)

// Store is the persistence boundary for tasks. Mutations that depend
// on the task's current state take an expected State and report the
// number of rows they touched; zero means the precondition no longer
// held at write time.
type Store interface {
	GetApplication(ctx context.Context, acronym string) (application.Application, error)
	// AllocateRNumber atomically advances the application's counter and
	// returns the new value.
	AllocateRNumber(ctx context.Context, acronym string) (int, error)
	GetPlan(ctx context.Context, appAcronym, mvpName string) (plan.Plan, error)

	Insert(ctx context.Context, t Task) error
	Get(ctx context.Context, id string) (Task, error)
	// Transition moves the task to a new state, reassigns the owner and
	// replaces the notes blob, all conditioned on the current state.
	Transition(ctx context.Context, id string, from, to State, owner, notes string) (int64, error)
	UpdateNotes(ctx context.Context, id string, expected State, notes string) (int64, error)
	UpdatePlan(ctx context.Context, id string, expected State, planRef, notes string) (int64, error)
	ListByState(ctx context.Context, appAcronym string, state State) ([]Summary, error)
	ListAll(ctx context.Context, appAcronym string) ([]Summary, error)
}

// TxRunner scopes a group of store calls to one atomic unit. The
// Postgres runner wraps a database transaction; the in-memory runner
// serialises callers behind a lock.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}
