// internal/review/memory.go
package review

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps reviews in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	reviews map[uuid.UUID]Review
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reviews: make(map[uuid.UUID]Review)}
}

func (s *MemoryStore) List(ctx context.Context) ([]*Review, error) {
	return s.filter(func(*Review) bool { return true }), nil
}

func (s *MemoryStore) ListByBook(ctx context.Context, bookID uuid.UUID) ([]*Review, error) {
	return s.filter(func(r *Review) bool { return r.BookID == bookID }), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Review, error) {
	return s.filter(func(r *Review) bool { return r.UserID == userID }), nil
}

func (s *MemoryStore) filter(keep func(*Review) bool) []*Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		r := r
		if keep(&r) {
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *MemoryStore) Insert(ctx context.Context, r *Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.ID] = *r
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, r *Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[r.ID]; !ok {
		return ErrNotFound
	}
	s.reviews[r.ID] = *r
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
