// internal/journal/memory.go
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the journal in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	entries map[uuid.UUID][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID][]Entry)}
}

func (m *MemoryStore) Append(ctx context.Context, reviewID uuid.UUID, expectedVersion int, entries []Entry) error {
	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries[reviewID]) != expectedVersion {
		return ErrConcurrencyConflict
	}
	for i, e := range entries {
		m.nextID++
		e.ID = m.nextID
		e.ReviewID = reviewID
		e.Version = expectedVersion + i + 1
		e.CreatedAt = time.Now().UTC()
		m.entries[reviewID] = append(m.entries[reviewID], e)
	}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, reviewID uuid.UUID) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry{}, m.entries[reviewID]...), nil
}

func (m *MemoryStore) Version(ctx context.Context, reviewID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[reviewID]), nil
}
