package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/getmockd/ersatz/internal/id"
)

// Logger records entries.
type Logger interface {
	Log(entry *Entry)
}

// Filter selects entries. Zero fields are not applied.
type Filter struct {
	Protocol   string
	Method     string
	Path       string // prefix
	MatchedID  string
	StatusCode int
	Unmatched  bool
	Limit      int
}

func (f *Filter) accepts(e *Entry) bool {
	if f == nil {
		return true
	}
	switch {
	case f.Protocol != "" && e.Protocol != f.Protocol:
		return false
	case f.Method != "" && !strings.EqualFold(e.Method, f.Method):
		return false
	case f.Path != "" && !strings.HasPrefix(e.Path, f.Path):
		return false
	case f.MatchedID != "" && e.MatchedID != f.MatchedID:
		return false
	case f.StatusCode != 0 && e.ResponseStatus != f.StatusCode:
		return false
	case f.Unmatched && e.MatchedID != "":
		return false
	}
	return true
}

// MemoryStore keeps the most recent entries in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
	max     int
}

// NewMemoryStore returns a store holding at most limit entries; limit <= 0
// means unbounded.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{max: limit}
}

// Log records entry, assigning an ID and timestamp when missing. The oldest
// entry is dropped once the store is full.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = id.Short()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.max > 0 && len(s.entries) > s.max {
		s.entries = append(s.entries[:0:0], s.entries[len(s.entries)-s.max:]...)
	}
}

// Get returns the entry with the given ID, or nil.
func (s *MemoryStore) Get(entryID string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

// List returns matching entries oldest first.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Entry
	for _, e := range s.entries {
		if !filter.accepts(e) {
			continue
		}
		out = append(out, e)
		if filter != nil && filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
