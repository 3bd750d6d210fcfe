//go:build integration

package task

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"taskhub/pkg/testutil/containers"
)

func setupPostgres(t *testing.T) (*sql.DB, *PostgresStore) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pc := containers.NewPostgresContainer(t, "../../db/schema.sql")
	return pc.DB, NewPostgres(pc.DB)
}

func seedApplication(t *testing.T, db *sql.DB, acronym string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO applications (acronym, rnumber, start_date, end_date, permit_create)
		 VALUES ($1, 0, '01-01-2026', '31-12-2026', 'pm')`,
		acronym,
	)
	require.NoError(t, err)
}

func TestPostgresAllocateRNumberIsAtomic(t *testing.T) {
	db, _ := setupPostgres(t)
	seedApplication(t, db, "DEMO")
	ctx := context.Background()

	runner := &testTxRunner{db: db}

	const n = 16
	ids := make(chan string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return runner.RunInTx(ctx, func(store Store) error {
				num, err := store.AllocateRNumber(ctx, "DEMO")
				if err != nil {
					return err
				}
				id := fmt.Sprintf("DEMO_%d", num)
				if err := store.Insert(ctx, Task{
					ID:          id,
					Name:        "parallel",
					State:       StateOpen,
					AppAcronym:  "DEMO",
					Creator:     "alice",
					Owner:       "alice",
					CreatedDate: "01-06-2026",
					Notes:       "seed",
				}); err != nil {
					return err
				}
				ids <- id
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, n)

	var counter int
	require.NoError(t, db.QueryRow(`SELECT rnumber FROM applications WHERE acronym = 'DEMO'`).Scan(&counter))
	assert.Equal(t, n, counter)
}

func TestPostgresTransitionIsCompareAndSwap(t *testing.T) {
	db, store := setupPostgres(t)
	seedApplication(t, db, "DEMO")
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, Task{
		ID:          "DEMO_1",
		Name:        "Fix bug",
		State:       StateOpen,
		AppAcronym:  "DEMO",
		Creator:     "alice",
		Owner:       "alice",
		CreatedDate: "01-06-2026",
		Notes:       "created",
	}))

	affected, err := store.Transition(ctx, "DEMO_1", StateOpen, StateTodo, "bob", "created\ntrail")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	// Second writer still expects open; the row has moved on.
	affected, err = store.Transition(ctx, "DEMO_1", StateOpen, StateTodo, "carol", "other")
	require.NoError(t, err)
	assert.Zero(t, affected)

	got, err := store.Get(ctx, "DEMO_1")
	require.NoError(t, err)
	assert.Equal(t, StateTodo, got.State)
	assert.Equal(t, "bob", got.Owner)
	assert.Equal(t, "created\ntrail", got.Notes)
}

func TestPostgresUpdatePlanAndNotes(t *testing.T) {
	db, store := setupPostgres(t)
	seedApplication(t, db, "DEMO")
	ctx := context.Background()

	_, err := db.Exec(
		`INSERT INTO plans (mvp_name, app_acronym, start_date, end_date, colour)
		 VALUES ('sprint-1', 'DEMO', '01-02-2026', '15-02-2026', '#00aaff')`)
	require.NoError(t, err)

	require.NoError(t, store.Insert(ctx, Task{
		ID:          "DEMO_1",
		Name:        "Fix bug",
		State:       StateOpen,
		AppAcronym:  "DEMO",
		Creator:     "alice",
		Owner:       "alice",
		CreatedDate: "01-06-2026",
		Notes:       "created",
	}))

	plan, err := store.GetPlan(ctx, "DEMO", "sprint-1")
	require.NoError(t, err)
	assert.Equal(t, "#00aaff", plan.Colour)

	affected, err := store.UpdatePlan(ctx, "DEMO_1", StateOpen, "sprint-1", "created\nplanned")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	affected, err = store.UpdateNotes(ctx, "DEMO_1", StateTodo, "wrong state")
	require.NoError(t, err)
	assert.Zero(t, affected)

	got, err := store.Get(ctx, "DEMO_1")
	require.NoError(t, err)
	assert.Equal(t, "sprint-1", got.Plan)
	assert.Equal(t, "created\nplanned", got.Notes)

	summaries, err := store.ListByState(ctx, "DEMO", StateOpen)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "sprint-1", summaries[0].Plan)

	all, err := store.ListAll(ctx, "DEMO")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, StateOpen, all[0].State)
}

// testTxRunner mirrors the server's transactional runner without
// importing package main.
type testTxRunner struct {
	db *sql.DB
}

func (t *testTxRunner) RunInTx(ctx context.Context, fn func(store Store) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(NewPostgresTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
