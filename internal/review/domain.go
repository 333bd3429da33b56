// internal/review/domain.go
package review

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bookreview/internal/journal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of one book.
type Review struct {
	ID        uuid.UUID
	Rating    int
	BookID    uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Response is the public representation of a review.
type Response struct {
	ID     uuid.UUID `json:"id"`
	Rating int       `json:"rating"`
	BookID uuid.UUID `json:"book_id"`
	UserID uuid.UUID `json:"user_id"`
}

// writeRequest is the body of create and update calls. Rating range is
// checked by the service, not here.
type writeRequest struct {
	Rating int       `json:"rating"`
	BookID uuid.UUID `json:"book_id" validate:"required"`
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// HistoryEntry is the public representation of a journal entry.
type HistoryEntry struct {
	Type      string    `json:"type"`
	Version   int       `json:"version"`
	Review    *Response `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(r *Review) Response {
	return Response{
		ID:     r.ID,
		Rating: r.Rating,
		BookID: r.BookID,
		UserID: r.UserID,
	}
}

func toResponses(reviews []*Review) []Response {
	out := make([]Response, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toResponse(r))
	}
	return out
}

// toHistory maps journal entries to their public form. Entries whose data
// is not a review snapshot are returned without one.
func toHistory(entries []journal.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		h := HistoryEntry{
			Type:      e.Type,
			Version:   e.Version,
			CreatedAt: e.CreatedAt,
		}
		var snap Response
		if err := json.Unmarshal(e.Data, &snap); err == nil && snap.ID != uuid.Nil {
			h.Review = &snap
		}
		out = append(out, h)
	}
	return out
}
