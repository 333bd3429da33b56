// internal/journal/postgres.go
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookreview/internal/database"
)

const Schema = `
CREATE TABLE IF NOT EXISTS review_journal (
	id BIGSERIAL PRIMARY KEY,
	review_id UUID NOT NULL,
	entry_type TEXT NOT NULL,
	data JSONB NOT NULL,
	version INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (review_id, version)
)`

// PostgresStore keeps the journal in Postgres with serializable appends.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tracer: otel.Tracer("bookreview/journal")}
}

func (s *PostgresStore) Append(ctx context.Context, reviewID uuid.UUID, expectedVersion int, entries []Entry) error {
	ctx, span := s.tracer.Start(ctx, "journal.append",
		trace.WithAttributes(
			attribute.String("review.id", reviewID.String()),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("entry.count", len(entries)),
		),
	)
	defer span.End()

	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM review_journal WHERE review_id = $1`,
		reviewID).Scan(&current)
	if err != nil {
		return fmt.Errorf("query current version: %w", err)
	}
	if current != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", current),
			attribute.Bool("conflict.detected", true),
		)
		return ErrConcurrencyConflict
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO review_journal (review_id, entry_type, data, version, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		version := expectedVersion + i + 1
		var id int64
		err := stmt.QueryRowContext(ctx, reviewID, e.Type, []byte(e.Data), version, time.Now().UTC()).Scan(&id)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrConcurrencyConflict
			}
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
		span.AddEvent("entry.appended", trace.WithAttributes(
			attribute.Int64("entry.id", id),
			attribute.Int("entry.version", version),
			attribute.String("entry.type", e.Type),
		))
	}

	if err := tx.Commit(); err != nil {
		if database.IsSerializationFailure(err) {
			return ErrConcurrencyConflict
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, reviewID uuid.UUID) ([]Entry, error) {
	ctx, span := s.tracer.Start(ctx, "journal.load",
		trace.WithAttributes(attribute.String("review.id", reviewID.String())))
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, review_id, entry_type, data, version, created_at
		FROM review_journal
		WHERE review_id = $1
		ORDER BY version ASC`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var data []byte
		if err := rows.Scan(&e.ID, &e.ReviewID, &e.Type, &data, &e.Version, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Data = data
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	span.SetAttributes(attribute.Int("entries.loaded", len(entries)))
	return entries, nil
}

func (s *PostgresStore) Version(ctx context.Context, reviewID uuid.UUID) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM review_journal WHERE review_id = $1`,
		reviewID).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("query version: %w", err)
	}
	return version, nil
}
