package verifylog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore builds an in-memory verification log for unit tests and
// development mode.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Append(_ context.Context, entry Entry) (Entry, error) {
	entry.ID = uuid.NewString()
	entry.Timestamp = stamp(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *memoryStore) ByCredentialID(_ context.Context, credentialID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Entry
	// entries are stored oldest-first; walk backwards for most-recent first
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].CredentialID == credentialID {
			matched = append(matched, s.entries[i])
		}
	}
	return matched, nil
}

func (s *memoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	recent := make([]Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, s.entries[i])
	}
	return recent, nil
}

func (s *memoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Stats{Total: int64(len(s.entries))}
	for _, e := range s.entries {
		if e.Verified {
			stats.Verified++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}
