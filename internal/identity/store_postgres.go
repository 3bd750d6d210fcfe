package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"taskhub/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// PostgresStore persists users, groups and memberships in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, active) VALUES ($1, $2, $3, $4)`,
		user.Username, user.PasswordHash, nullable(user.Email), user.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, username string) (User, error) {
	var user User
	var email sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, email, active FROM users WHERE username = $1`,
		username,
	).Scan(&user.Username, &user.PasswordHash, &email, &user.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, sentinel.ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	user.Email = email.String

	groups, err := s.groupsOf(ctx, username)
	if err != nil {
		return User{}, err
	}
	user.Groups = groups
	return user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, user User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, email = $3, active = $4 WHERE username = $1`,
		user.Username, user.PasswordHash, nullable(user.Email), user.Active,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.username, u.email, u.active,
		        string_agg(ug.group_name, ',' ORDER BY ug.group_name)
		 FROM users u
		 LEFT JOIN user_groups ug ON ug.username = u.username
		 GROUP BY u.username, u.email, u.active
		 ORDER BY u.username`,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		var email, groups sql.NullString
		if err := rows.Scan(&user.Username, &email, &user.Active, &groups); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.Email = email.String
		if groups.Valid && groups.String != "" {
			user.Groups = strings.Split(groups.String, ",")
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *PostgresStore) CreateGroup(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO groups (name) VALUES ($1)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

// SetGroups replaces a user's memberships in one transaction.
func (s *PostgresStore) SetGroups(ctx context.Context, username string, groups []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set groups tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_groups WHERE username = $1`, username,
	); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}
	for _, group := range groups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_groups (username, group_name) VALUES ($1, $2)`,
			username, group,
		); err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) HasGroup(ctx context.Context, username, group string) (bool, error) {
	var member bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_groups WHERE username = $1 AND group_name = $2)`,
		username, group,
	).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}

func (s *PostgresStore) groupsOf(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_name FROM user_groups WHERE username = $1 ORDER BY group_name`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("groups of user: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
