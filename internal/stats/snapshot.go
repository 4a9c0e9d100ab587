package stats

import (
	"sort"
	"time"

	"github.com/dshills/keytally/internal/input/key"
)

// FiletypeStats is the snapshot of one filetype's statistics.
type FiletypeStats struct {
	Totals  Totals  `json:"totals"`
	Entries []Entry `json:"entries"`
}

// Snapshot is a deep copy of the store, safe to serialize or render
// while recording continues.
type Snapshot struct {
	TakenAt   time.Time                `json:"takenAt"`
	Filetypes map[string]FiletypeStats `json:"filetypes"`
}

// IsEmpty reports whether the snapshot contains any data.
func (s Snapshot) IsEmpty() bool {
	return len(s.Filetypes) == 0
}

// Summary is one filetype's row in the cross-filetype overview.
type Summary struct {
	Filetype string
	Totals   Totals

	// Top is the most used entry, zero-valued when the bucket is empty.
	Top Entry
}

// Snapshot returns a deep copy of the store's contents.
// Entries are sorted by count descending.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TakenAt:   time.Now(),
		Filetypes: make(map[string]FiletypeStats, len(s.buckets)),
	}
	for ft, b := range s.buckets {
		entries := make([]Entry, 0, len(b.entries))
		for _, e := range b.entries {
			entries = append(entries, *e)
		}
		sortEntries(entries)
		snap.Filetypes[ft] = FiletypeStats{
			Totals:  b.totals,
			Entries: entries,
		}
	}
	return snap
}

// Load replaces the store's contents with a snapshot, typically one
// read back from disk. Sequence tokens are re-sanitized on the way in;
// entries whose token sanitizes to empty are dropped.
func (s *Store) Load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets = make(map[string]*bucket, len(snap.Filetypes))
	for ft, fts := range snap.Filetypes {
		if ft == "" {
			ft = DefaultFiletype
		}
		b := &bucket{
			entries: make(map[string]*Entry, len(fts.Entries)),
			totals:  fts.Totals,
		}
		for _, e := range fts.Entries {
			e.Sequence = key.SanitizeToken(e.Sequence)
			if e.Sequence == "" || e.Count == 0 {
				continue
			}
			if len(b.entries) >= s.maxEntries {
				break
			}
			copied := e
			b.entries[e.Sequence] = &copied
		}
		s.buckets[ft] = b
	}
	s.dirty = false
}

// Overview returns one Summary per filetype, ordered by total sequence
// count descending and limited to the n most active filetypes.
// n <= 0 returns all of them.
func (s *Store) Overview(n int) []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.buckets))
	for ft, b := range s.buckets {
		sum := Summary{Filetype: ft, Totals: b.totals}
		for _, e := range b.entries {
			if e.Count > sum.Top.Count {
				sum.Top = *e
			}
		}
		out = append(out, sum)
	}

	// Count descending, name ascending for stable display
	sort.Slice(out, func(i, j int) bool {
		if out[i].Totals.Sequences != out[j].Totals.Sequences {
			return out[i].Totals.Sequences > out[j].Totals.Sequences
		}
		return out[i].Filetype < out[j].Filetype
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
