package application

import "context"

// Store is the persistence boundary for application records. RNumber is not
// writable through Update; it belongs to the task store's allocation path.
type Store interface {
	Create(ctx context.Context, app Application) error
	Get(ctx context.Context, acronym string) (Application, error)
	Update(ctx context.Context, app Application) error
	List(ctx context.Context) ([]Application, error)
}
