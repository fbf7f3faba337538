// Package store persists history entries produced by the tracker.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/dbsmedya/historytracker/internal/tracker"
)

// Filter narrows a List call. Empty fields match everything; a Limit of
// zero or less returns every match.
type Filter struct {
	EntityType string
	EntityID   string
	Scope      string
	Limit      int
}

func (f Filter) matches(entry *tracker.HistoryEntry) bool {
	if f.EntityType != "" && entry.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && entry.EntityID != f.EntityID {
		return false
	}
	if f.Scope != "" && entry.Scope != f.Scope {
		return false
	}
	return true
}

// MemoryStore keeps entries in process memory. It is meant for tests and
// for hosts that forward entries elsewhere in batches.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*tracker.HistoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Store appends entry.
func (s *MemoryStore) Store(ctx context.Context, entry *tracker.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return &tracker.StorageError{Op: "store", Err: err}
	}
	if entry == nil {
		return &tracker.StorageError{Op: "store", Err: errNilEntry}
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	return nil
}

// Entries returns every stored entry in insertion order.
func (s *MemoryStore) Entries() []*tracker.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ForScope returns the entries recorded under scope, in insertion order.
func (s *MemoryStore) ForScope(scope string) []*tracker.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*tracker.HistoryEntry
	for _, entry := range s.entries {
		if entry.Scope == scope {
			out = append(out, entry)
		}
	}
	return out
}

// List returns the entries matching filter, newest first.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]*tracker.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &tracker.StorageError{Op: "list", Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*tracker.HistoryEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !filter.matches(s.entries[i]) {
			continue
		}
		out = append(out, s.entries[i])
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Reset drops every stored entry.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
