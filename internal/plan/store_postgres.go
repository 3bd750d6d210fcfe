package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"taskhub/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists plans in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, plan Plan) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plans (mvp_name, app_acronym, start_date, end_date, colour)
		 VALUES ($1, $2, $3, $4, $5)`,
		plan.MVPName, plan.AppAcronym, plan.StartDate, plan.EndDate, plan.Colour,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, appAcronym, mvpName string) (Plan, error) {
	var plan Plan
	err := s.db.QueryRowContext(ctx,
		`SELECT mvp_name, app_acronym, start_date, end_date, colour
		 FROM plans WHERE app_acronym = $1 AND mvp_name = $2`,
		appAcronym, mvpName,
	).Scan(&plan.MVPName, &plan.AppAcronym, &plan.StartDate, &plan.EndDate, &plan.Colour)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, sentinel.ErrNotFound
		}
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appAcronym string) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mvp_name, app_acronym, start_date, end_date, colour
		 FROM plans WHERE app_acronym = $1 ORDER BY mvp_name`,
		appAcronym,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var plan Plan
		if err := rows.Scan(&plan.MVPName, &plan.AppAcronym, &plan.StartDate, &plan.EndDate, &plan.Colour); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
