// internal/book/memory.go
package book

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps books in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[uuid.UUID]Book
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[uuid.UUID]Book)}
}

func (s *MemoryStore) List(ctx context.Context) ([]*Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Book, 0, len(s.books))
	for _, b := range s.books {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) Insert(ctx context.Context, b *Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = *b
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, b *Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[b.ID]; !ok {
		return ErrNotFound
	}
	s.books[b.ID] = *b
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return ErrNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
