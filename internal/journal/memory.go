// internal/journal/memory.go
package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the most recent entries in a fixed-size ring. It is the
// default backend; restarts lose history, which dev setups accept.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	wrapped bool
}

// NewMemoryStore creates a ring holding at most size entries.
func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = 1000
	}
	return &MemoryStore{entries: make([]Entry, size)}
}

// Record stores a copy of the entry, evicting the oldest when full.
func (s *MemoryStore) Record(_ context.Context, entry *Entry) error {
	e := *entry
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = e
	s.next++
	if s.next == len(s.entries) {
		s.next = 0
		s.wrapped = true
	}
	return nil
}

// List returns matching entries, newest first.
func (s *MemoryStore) List(_ context.Context, q Query) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.next
	if s.wrapped {
		count = len(s.entries)
	}

	limit := q.limit()
	results := make([]*Entry, 0, min(count, limit))
	for i := 0; i < count && len(results) < limit; i++ {
		// Walk backwards from the most recently written slot.
		idx := s.next - 1 - i
		if idx < 0 {
			idx += len(s.entries)
		}
		e := s.entries[idx]
		if q.matches(&e) {
			results = append(results, &e)
		}
	}
	return results, nil
}

// Stats counts entries by status.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.next
	if s.wrapped {
		count = len(s.entries)
	}

	var stats Stats
	for i := 0; i < count; i++ {
		idx := s.next - 1 - i
		if idx < 0 {
			idx += len(s.entries)
		}
		stats.Total++
		switch s.entries[idx].Status {
		case StatusDispatched:
			stats.Dispatched++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error { return nil }
