package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"taskhub/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists application records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, app Application) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applications
		 (acronym, description, rnumber, start_date, end_date,
		  permit_create, permit_open, permit_todo, permit_doing, permit_done)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		app.Acronym, nullable(app.Description), app.RNumber, app.StartDate, app.EndDate,
		nullable(app.PermitCreate), nullable(app.PermitOpen), nullable(app.PermitTodo),
		nullable(app.PermitDoing), nullable(app.PermitDone),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, acronym string) (Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT acronym, description, rnumber, start_date, end_date,
		        permit_create, permit_open, permit_todo, permit_doing, permit_done
		 FROM applications WHERE acronym = $1`,
		acronym,
	)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, sentinel.ErrNotFound
		}
		return Application{}, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) Update(ctx context.Context, app Application) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET
		 description = $2, permit_create = $3, permit_open = $4,
		 permit_todo = $5, permit_doing = $6, permit_done = $7
		 WHERE acronym = $1`,
		app.Acronym, nullable(app.Description),
		nullable(app.PermitCreate), nullable(app.PermitOpen), nullable(app.PermitTodo),
		nullable(app.PermitDoing), nullable(app.PermitDone),
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT acronym, description, rnumber, start_date, end_date,
		        permit_create, permit_open, permit_todo, permit_doing, permit_done
		 FROM applications ORDER BY acronym`,
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var description, permitCreate, permitOpen, permitTodo, permitDoing, permitDone sql.NullString
	err := row.Scan(&app.Acronym, &description, &app.RNumber, &app.StartDate, &app.EndDate,
		&permitCreate, &permitOpen, &permitTodo, &permitDoing, &permitDone)
	if err != nil {
		return Application{}, err
	}
	app.Description = description.String
	app.PermitCreate = permitCreate.String
	app.PermitOpen = permitOpen.String
	app.PermitTodo = permitTodo.String
	app.PermitDoing = permitDoing.String
	app.PermitDone = permitDone.String
	return app, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
