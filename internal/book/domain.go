// internal/book/domain.go
package book

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("book not found")

// Book is a title in the catalogue.
type Book struct {
	ID        uuid.UUID
	Title     string
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Response is the public representation of a book.
type Response struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
}

type writeRequest struct {
	Title  string `json:"title" validate:"required,max=255"`
	Author string `json:"author" validate:"required,max=255"`
}

func toResponse(b *Book) Response {
	return Response{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
	}
}

func toResponses(books []*Book) []Response {
	out := make([]Response, 0, len(books))
	for _, b := range books {
		out = append(out, toResponse(b))
	}
	return out
}
