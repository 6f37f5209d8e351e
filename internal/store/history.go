package store

import (
	"sync"

	"github.com/henrycs/mockserver/internal/domain"
)

// HistoryEntry is one executed step in the global execution log.
type HistoryEntry struct {
	Code   string        `json:"code"`
	Stage  string        `json:"stage"`
	Action domain.Action `json:"action"`
}

// HistoryStore is a thread-safe append-only log of executed steps,
// in execution order.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Append adds an entry to the end of the log.
func (s *HistoryStore) Append(e HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
}

// List returns a copy of the log in execution order.
func (s *HistoryStore) List() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear drops all entries.
func (s *HistoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
}
