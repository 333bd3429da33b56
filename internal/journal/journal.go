// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrInvalidVersion      = errors.New("invalid version number")
)

// Entry types recorded for reviews.
const (
	ReviewCreated = "ReviewCreated"
	ReviewUpdated = "ReviewUpdated"
	ReviewDeleted = "ReviewDeleted"
)

// Entry is one change to a review, in version order.
type Entry struct {
	ID        int64           `json:"id"`
	ReviewID  uuid.UUID       `json:"review_id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is an append-only log keyed by review id. Append succeeds only when
// expectedVersion matches the latest stored version.
type Store interface {
	Append(ctx context.Context, reviewID uuid.UUID, expectedVersion int, entries []Entry) error
	Load(ctx context.Context, reviewID uuid.UUID) ([]Entry, error)
	Version(ctx context.Context, reviewID uuid.UUID) (int, error)
}

// maxAttempts bounds re-reads of the version after a conflicting append.
const maxAttempts = 3

// Journal records review changes on top of a Store.
type Journal struct {
	store   Store
	appends metric.Int64Counter
}

func New(store Store) (*Journal, error) {
	appends, err := otel.Meter("bookreview/journal").Int64Counter(
		"journal_appends_total",
		metric.WithDescription("Review journal appends by entry type and result"),
	)
	if err != nil {
		return nil, fmt.Errorf("create journal counter: %w", err)
	}
	return &Journal{store: store, appends: appends}, nil
}

// Record appends one entry of the given type with payload as its data.
func (j *Journal) Record(ctx context.Context, reviewID uuid.UUID, entryType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", entryType, err)
	}

	for attempt := 1; ; attempt++ {
		err = j.appendNext(ctx, reviewID, Entry{ReviewID: reviewID, Type: entryType, Data: data})
		if !errors.Is(err, ErrConcurrencyConflict) || attempt == maxAttempts {
			break
		}
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	j.appends.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", entryType),
		attribute.String("result", result),
	))
	return err
}

func (j *Journal) appendNext(ctx context.Context, reviewID uuid.UUID, e Entry) error {
	version, err := j.store.Version(ctx, reviewID)
	if err != nil {
		return err
	}
	return j.store.Append(ctx, reviewID, version, []Entry{e})
}

// History returns every entry for a review, oldest first.
func (j *Journal) History(ctx context.Context, reviewID uuid.UUID) ([]Entry, error) {
	return j.store.Load(ctx, reviewID)
}
