// internal/user/postgres.go
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Schema creates the users and credentials tables.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(100) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS credentials (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		password_hash TEXT NOT NULL,
		salt TEXT NOT NULL
	)`,
}

// PostgresStore stores users in Postgres.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("bookreview/user"),
	}
}

const selectUser = `
	SELECT u.id, u.username, u.email, u.created_at, c.password_hash, c.salt
	FROM users u
	JOIN credentials c ON c.user_id = u.id
`

func (s *PostgresStore) List(ctx context.Context) ([]*User, error) {
	ctx, span := s.tracer.Start(ctx, "user.store.list")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, selectUser+` ORDER BY u.created_at, u.id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.PasswordHash, &u.Salt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "user.store.get",
		trace.WithAttributes(attribute.String("user.id", id.String())),
	)
	defer span.End()

	return s.scanOne(s.db.QueryRowContext(ctx, selectUser+` WHERE u.id = $1`, id))
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, span := s.tracer.Start(ctx, "user.store.get_by_email")
	defer span.End()

	return s.scanOne(s.db.QueryRowContext(ctx, selectUser+` WHERE u.email = $1`, email))
}

func (s *PostgresStore) scanOne(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.PasswordHash, &u.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Insert(ctx context.Context, u *User) error {
	ctx, span := s.tracer.Start(ctx, "user.store.insert",
		trace.WithAttributes(attribute.String("user.id", u.ID.String())),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, username, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Username, u.Email, u.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return mapUniqueViolation(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`, u.ID, u.PasswordHash, u.Salt)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "user.store.delete",
		trace.WithAttributes(attribute.String("user.id", id.String())),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	if strings.Contains(pqErr.Constraint, "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
