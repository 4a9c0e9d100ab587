// Package stats maintains per-filetype keystroke sequence statistics.
//
// The Store maps filetypes to sequence entries. Each entry tracks how
// often a sequence was typed, when it was last used, and a rolling mean
// of how long it took to type. All methods are safe for concurrent use.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/keytally/internal/input/key"
)

// DefaultMaxEntries is the per-filetype cap on distinct sequences.
// The least recently used entry is evicted when the cap is exceeded.
const DefaultMaxEntries = 512

// DefaultFiletype is the bucket for sessions with no known filetype.
const DefaultFiletype = "text"

// Entry is the aggregate record for one sequence within one filetype.
type Entry struct {
	// Sequence is the concatenated token form, e.g. "diw" or "<C-x><C-s>".
	Sequence string `json:"sequence"`

	// Count is how many times the sequence was recorded.
	Count uint64 `json:"count"`

	// Keys is the number of key events in the sequence.
	Keys int `json:"keys"`

	// LastUsed is when the sequence was last recorded.
	LastUsed time.Time `json:"lastUsed"`

	// AvgDuration is the rolling mean time to type the sequence.
	// Zero for single-key sequences.
	AvgDuration time.Duration `json:"avgDurationNs"`
}

// Totals aggregates activity for one filetype.
type Totals struct {
	// Sequences is the total number of recorded sequences.
	Sequences uint64 `json:"sequences"`

	// Keys is the total number of key events recorded.
	Keys uint64 `json:"keys"`

	// FirstSeen is the first recorded activity.
	FirstSeen time.Time `json:"firstSeen"`

	// LastSeen is the most recent recorded activity.
	LastSeen time.Time `json:"lastSeen"`
}

// bucket holds the entries and totals for one filetype.
type bucket struct {
	entries map[string]*Entry
	totals  Totals
}

// Store is the in-memory statistics store.
type Store struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	maxEntries int
	dirty      bool
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries sets the per-filetype entry cap.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// NewStore creates an empty statistics store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		buckets:    make(map[string]*bucket),
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record adds one recorded sequence to the filetype's statistics.
// The sequence token string is sanitized before storage; an empty
// filetype falls into DefaultFiletype, an empty sequence is ignored.
func (s *Store) Record(filetype, sequence string, keys int, duration time.Duration, at time.Time) {
	sequence = key.SanitizeToken(sequence)
	if sequence == "" {
		return
	}
	if filetype == "" {
		filetype = DefaultFiletype
	}
	if keys < 1 {
		keys = 1
	}
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[filetype]
	if b == nil {
		b = &bucket{entries: make(map[string]*Entry)}
		s.buckets[filetype] = b
	}

	e := b.entries[sequence]
	if e == nil {
		if len(b.entries) >= s.maxEntries {
			b.evictOldest()
		}
		e = &Entry{Sequence: sequence, Keys: keys}
		b.entries[sequence] = e
	}

	e.Count++
	e.Keys = keys
	e.LastUsed = at
	// Incremental cumulative mean
	e.AvgDuration += (duration - e.AvgDuration) / time.Duration(e.Count)

	b.totals.Sequences++
	b.totals.Keys += uint64(keys)
	if b.totals.FirstSeen.IsZero() || at.Before(b.totals.FirstSeen) {
		b.totals.FirstSeen = at
	}
	if at.After(b.totals.LastSeen) {
		b.totals.LastSeen = at
	}

	s.dirty = true
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (b *bucket) evictOldest() {
	var oldest string
	var oldestAt time.Time
	first := true
	for seq, e := range b.entries {
		if first || e.LastUsed.Before(oldestAt) {
			oldest = seq
			oldestAt = e.LastUsed
			first = false
		}
	}
	if oldest != "" {
		delete(b.entries, oldest)
	}
}

// Filetypes returns the known filetypes sorted alphabetically.
func (s *Store) Filetypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fts := make([]string, 0, len(s.buckets))
	for ft := range s.buckets {
		fts = append(fts, ft)
	}
	sort.Strings(fts)
	return fts
}

// TopN returns up to n entries for a filetype, sorted by count descending
// with most recent use breaking ties.
func (s *Store) TopN(filetype string, n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.buckets[filetype]
	if b == nil || n < 1 {
		return nil
	}

	entries := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, *e)
	}
	sortEntries(entries)

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Totals returns the aggregate totals for a filetype.
func (s *Store) Totals(filetype string) (Totals, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.buckets[filetype]
	if b == nil {
		return Totals{}, false
	}
	return b.totals, true
}

// Dirty reports whether the store has changed since the last ClearDirty.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty flag. Called by the persistence layer
// after a successful write.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// sortEntries orders by count descending, then most recent, then sequence.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if !entries[i].LastUsed.Equal(entries[j].LastUsed) {
			return entries[i].LastUsed.After(entries[j].LastUsed)
		}
		return entries[i].Sequence < entries[j].Sequence
	})
}
