// internal/book/implementation.go
package book

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// service implements the Service interface.
type service struct {
	store  Store
	logger zerolog.Logger
}

// NewService creates a new book service instance.
func NewService(store Store, logger zerolog.Logger) Service {
	return &service{
		store:  store,
		logger: logger.With().Str("component", "book_service").Logger(),
	}
}

// ListBooks returns every book.
func (s *service) ListBooks(ctx context.Context) ([]*Book, error) {
	books, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	return s.store.Get(ctx, id)
}

// AddBook creates a new book.
func (s *service) AddBook(ctx context.Context, title, author string) (*Book, error) {
	now := time.Now().UTC()
	b := &Book{
		ID:        uuid.New(),
		Title:     title,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	s.logger.Info().Str("book_id", b.ID.String()).Msg("book added")
	return b, nil
}

// UpdateBook replaces the title and author of an existing book.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, title, author string) (*Book, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	b.Title = title
	b.Author = author
	b.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

// DeleteBook removes a book. Reviews referencing it are left in place.
func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("book_id", id.String()).Msg("book deleted")
	return nil
}
