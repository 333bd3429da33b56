// internal/review/postgres.go
package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Schema creates the reviews table. book_id and user_id are plain columns:
// the referenced rows live in other services' databases.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY,
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		book_id UUID NOT NULL,
		user_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_book_id ON reviews (book_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_user_id ON reviews (user_id)`,
}

const selectReviews = `SELECT id, rating, book_id, user_id, created_at, updated_at FROM reviews`

// PostgresStore stores reviews in Postgres.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("bookreview/review"),
	}
}

func (s *PostgresStore) List(ctx context.Context) ([]*Review, error) {
	ctx, span := s.tracer.Start(ctx, "review.store.list")
	defer span.End()
	return s.query(ctx, selectReviews+` ORDER BY created_at, id`)
}

func (s *PostgresStore) ListByBook(ctx context.Context, bookID uuid.UUID) ([]*Review, error) {
	ctx, span := s.tracer.Start(ctx, "review.store.list_by_book",
		trace.WithAttributes(attribute.String("book.id", bookID.String())),
	)
	defer span.End()
	return s.query(ctx, selectReviews+` WHERE book_id = $1 ORDER BY created_at, id`, bookID)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error) {
	ctx, span := s.tracer.Start(ctx, "review.store.list_by_user",
		trace.WithAttributes(attribute.String("user.id", userID.String())),
	)
	defer span.End()
	return s.query(ctx, selectReviews+` WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		r := &Review{}
		if err := rows.Scan(&r.ID, &r.Rating, &r.BookID, &r.UserID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Review, error) {
	ctx, span := s.tracer.Start(ctx, "review.store.get",
		trace.WithAttributes(attribute.String("review.id", id.String())),
	)
	defer span.End()

	r := &Review{}
	err := s.db.QueryRowContext(ctx, selectReviews+` WHERE id = $1`, id).
		Scan(&r.ID, &r.Rating, &r.BookID, &r.UserID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review %s: %w", id, err)
	}
	return r, nil
}

func (s *PostgresStore) Insert(ctx context.Context, r *Review) error {
	ctx, span := s.tracer.Start(ctx, "review.store.insert",
		trace.WithAttributes(attribute.String("review.id", r.ID.String())),
	)
	defer span.End()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, rating, book_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.Rating, r.BookID, r.UserID, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, r *Review) error {
	ctx, span := s.tracer.Start(ctx, "review.store.update",
		trace.WithAttributes(attribute.String("review.id", r.ID.String())),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `
		UPDATE reviews
		SET rating = $1, book_id = $2, user_id = $3, updated_at = $4
		WHERE id = $5
	`, r.Rating, r.BookID, r.UserID, r.UpdatedAt, r.ID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "review.store.delete",
		trace.WithAttributes(attribute.String("review.id", id.String())),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
