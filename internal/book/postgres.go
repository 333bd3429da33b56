// internal/book/postgres.go
package book

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

// Schema creates the books table.
const Schema = `
	CREATE TABLE IF NOT EXISTS books (
		id UUID PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		author VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore stores books in Postgres.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("bookreview/book"),
	}
}

func (s *PostgresStore) List(ctx context.Context) ([]*Book, error) {
	ctx, span := s.tracer.Start(ctx, "book.store.list")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, author, created_at, updated_at
		FROM books
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		b := &Book{}
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	span.SetAttributes(attribute.Int("books.count", len(books)))
	return books, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "book.store.get",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	b := &Book{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, created_at, updated_at
		FROM books
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.Author, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get book %s: %w", id, err)
	}
	return b, nil
}

func (s *PostgresStore) Insert(ctx context.Context, b *Book) error {
	ctx, span := s.tracer.Start(ctx, "book.store.insert",
		trace.WithAttributes(attribute.String("book.id", b.ID.String())),
	)
	defer span.End()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, b.ID, b.Title, b.Author, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, b *Book) error {
	ctx, span := s.tracer.Start(ctx, "book.store.update",
		trace.WithAttributes(attribute.String("book.id", b.ID.String())),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `
		UPDATE books
		SET title = $1, author = $2, updated_at = $3
		WHERE id = $4
	`, b.Title, b.Author, b.UpdatedAt, b.ID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "book.store.delete",
		trace.WithAttributes(attribute.String("book.id", id.String())),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
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
