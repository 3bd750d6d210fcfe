package plan

import "context"

// Store is the persistence boundary for plans.
type Store interface {
	Create(ctx context.Context, plan Plan) error
	Get(ctx context.Context, appAcronym, mvpName string) (Plan, error)
	ListByApplication(ctx context.Context, appAcronym string) ([]Plan, error)
}
