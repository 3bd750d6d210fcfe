package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"taskhub/internal/application"
	"taskhub/internal/plan"
	"taskhub/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the same store
// serves standalone reads and transactional mutation units.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists tasks in PostgreSQL.
type PostgresStore struct {
	db dbtx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx binds the store to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

func (s *PostgresStore) GetApplication(ctx context.Context, acronym string) (application.Application, error) {
	var app application.Application
	var description, permitCreate, permitOpen, permitTodo, permitDoing, permitDone sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT acronym, description, rnumber, start_date, end_date,
		        permit_create, permit_open, permit_todo, permit_doing, permit_done
		 FROM applications WHERE acronym = $1`,
		acronym,
	).Scan(&app.Acronym, &description, &app.RNumber, &app.StartDate, &app.EndDate,
		&permitCreate, &permitOpen, &permitTodo, &permitDoing, &permitDone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Application{}, sentinel.ErrNotFound
		}
		return application.Application{}, fmt.Errorf("get application: %w", err)
	}
	app.Description = description.String
	app.PermitCreate = permitCreate.String
	app.PermitOpen = permitOpen.String
	app.PermitTodo = permitTodo.String
	app.PermitDoing = permitDoing.String
	app.PermitDone = permitDone.String
	return app, nil
}

func (s *PostgresStore) AllocateRNumber(ctx context.Context, acronym string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`UPDATE applications SET rnumber = rnumber + 1 WHERE acronym = $1 RETURNING rnumber`,
		acronym,
	).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("allocate rnumber: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) GetPlan(ctx context.Context, appAcronym, mvpName string) (plan.Plan, error) {
	var p plan.Plan
	err := s.db.QueryRowContext(ctx,
		`SELECT mvp_name, app_acronym, start_date, end_date, colour
		 FROM plans WHERE app_acronym = $1 AND mvp_name = $2`,
		appAcronym, mvpName,
	).Scan(&p.MVPName, &p.AppAcronym, &p.StartDate, &p.EndDate, &p.Colour)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return plan.Plan{}, sentinel.ErrNotFound
		}
		return plan.Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, t Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks
		 (task_id, task_name, task_description, task_state, task_plan,
		  task_app_acronym, task_creator, task_owner, task_create_date, task_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Name, nullString(t.Description), string(t.State), nullString(t.Plan),
		t.AppAcronym, t.Creator, t.Owner, t.CreatedDate, t.Notes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Task, error) {
	var t Task
	var description, planRef sql.NullString
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT task_id, task_name, task_description, task_state, task_plan,
		        task_app_acronym, task_creator, task_owner, task_create_date, task_notes
		 FROM tasks WHERE task_id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &description, &state, &planRef,
		&t.AppAcronym, &t.Creator, &t.Owner, &t.CreatedDate, &t.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, sentinel.ErrNotFound
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	t.Description = description.String
	t.Plan = planRef.String
	t.State = State(state)
	return t, nil
}

func (s *PostgresStore) Transition(ctx context.Context, id string, from, to State, owner, notes string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET task_state = $3, task_owner = $4, task_notes = $5
		 WHERE task_id = $1 AND task_state = $2`,
		id, string(from), string(to), owner, notes,
	)
	if err != nil {
		return 0, fmt.Errorf("transition task: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) UpdateNotes(ctx context.Context, id string, expected State, notes string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET task_notes = $3
		 WHERE task_id = $1 AND task_state = $2`,
		id, string(expected), notes,
	)
	if err != nil {
		return 0, fmt.Errorf("update task notes: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) UpdatePlan(ctx context.Context, id string, expected State, planRef, notes string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET task_plan = $3, task_notes = $4
		 WHERE task_id = $1 AND task_state = $2`,
		id, string(expected), nullString(planRef), notes,
	)
	if err != nil {
		return 0, fmt.Errorf("update task plan: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) ListByState(ctx context.Context, appAcronym string, state State) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, task_name, task_state, task_plan, task_owner
		 FROM tasks WHERE task_app_acronym = $1 AND task_state = $2
		 ORDER BY task_id`,
		appAcronym, string(state),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	var out []Summary
	for rows.Next() {
		var sm Summary
		var planRef sql.NullString
		var st string
		if err := rows.Scan(&sm.ID, &sm.Name, &st, &planRef, &sm.Owner); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		sm.State = State(st)
		sm.Plan = planRef.String
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListAll(ctx context.Context, appAcronym string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, task_name, task_state, task_plan, task_owner
		 FROM tasks WHERE task_app_acronym = $1
		 ORDER BY task_id`,
		appAcronym,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
