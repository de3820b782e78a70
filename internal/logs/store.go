package logs

import (
	"fmt"
	"sync"
	"time"
)

// Store is the in-memory conversation log for one agent execution.
//
// Thread-safe: entries may be pushed and patched concurrently from multiple
// decisions while readers scan history.
type Store struct {
	mu      sync.RWMutex
	history []Entry
}

// NewStore creates an empty conversation log.
func NewStore() *Store {
	return &Store{}
}

// Push appends an entry and returns its index.
func (s *Store) Push(e Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
	return len(s.history) - 1
}

// PushRaw appends a verbatim line from the agent process.
func (s *Store) PushRaw(line string) int {
	return s.Push(Entry{Type: EntryRaw, Content: line, Timestamp: time.Now()})
}

// PushPatch applies a positional replace patch. Entries are never deleted
// or reordered.
func (s *Store) PushPatch(p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Index < 0 || p.Index >= len(s.history) {
		return fmt.Errorf("patch index %d out of range (len %d)", p.Index, len(s.history))
	}
	s.history[p.Index] = p.Entry
	return nil
}

// Entry returns the entry at the given index.
func (s *Store) Entry(i int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.history) {
		return Entry{}, false
	}
	return s.history[i], true
}

// History returns a snapshot of the log in append order.
func (s *Store) History() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.history))
	copy(out, s.history)
	return out
}

// ScanNewestFirst visits entries from most recent to oldest until fn
// returns false. The scan runs over a snapshot, so concurrent pushes do
// not affect it.
func (s *Store) ScanNewestFirst(fn func(index int, e Entry) bool) {
	history := s.History()
	for i := len(history) - 1; i >= 0; i-- {
		if !fn(i, history[i]) {
			return
		}
	}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}
