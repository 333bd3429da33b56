// internal/book/service.go
package book

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the book service.
type Service interface {
	ListBooks(ctx context.Context) ([]*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	AddBook(ctx context.Context, title, author string) (*Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, title, author string) (*Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// Store persists books.
type Store interface {
	List(ctx context.Context) ([]*Book, error)
	Get(ctx context.Context, id uuid.UUID) (*Book, error)
	Insert(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
