// internal/review/service.go
package review

import (
	"context"

	"github.com/google/uuid"

	"bookreview/internal/journal"
)

// Service defines the interface for the review service.
type Service interface {
	ListReviews(ctx context.Context) ([]*Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*Review, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]*Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error)
	SaveReview(ctx context.Context, rating int, bookID, userID uuid.UUID) (*Review, error)
	UpdateReview(ctx context.Context, id uuid.UUID, rating int, bookID, userID uuid.UUID) (*Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, id uuid.UUID) ([]journal.Entry, error)
}

// Store persists reviews. Get, Update and Delete return ErrNotFound for
// unknown ids.
type Store interface {
	List(ctx context.Context) ([]*Review, error)
	Get(ctx context.Context, id uuid.UUID) (*Review, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]*Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error)
	Insert(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
