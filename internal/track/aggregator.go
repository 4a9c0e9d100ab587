// Package track groups key events into sequences using an idle timeout.
//
// A key arriving within the timeout of the previous key extends the
// pending sequence; a longer gap closes it. Closed sequences are handed
// to a RecordFunc as one logical keystroke event carrying the sequence's
// token string, key count, and typing duration. The idle timer fires the
// record on its own, so a sequence is recorded without needing another
// keypress.
package track

import (
	"sync"
	"time"

	"github.com/dshills/keytally/internal/input/key"
)

// Defaults for the aggregator.
const (
	// DefaultIdleTimeout is the gap that closes a sequence.
	DefaultIdleTimeout = 500 * time.Millisecond

	// DefaultMaxSequenceLen caps events per sequence. The pending
	// sequence is force-recorded at the cap so a held key cannot grow
	// one unbounded entry.
	DefaultMaxSequenceLen = 24
)

// Recorded is one closed sequence.
type Recorded struct {
	// Filetype active when the sequence started.
	Filetype string

	// Sequence is the concatenated token string.
	Sequence string

	// Keys is the number of key events in the sequence.
	Keys int

	// Duration is the time from first to last key. Zero for
	// single-key sequences.
	Duration time.Duration

	// At is the time of the last key in the sequence.
	At time.Time
}

// RecordFunc receives closed sequences. It is called without the
// aggregator lock held and may call back into the aggregator.
type RecordFunc func(Recorded)

// Aggregator buffers key events into sequences.
type Aggregator struct {
	mu       sync.Mutex
	idleDone *sync.Cond
	inFlight int
	idle     time.Duration
	maxLen   int
	record   RecordFunc
	pending  []key.Event
	filetype string
	timer    *time.Timer
	closed   bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithIdleTimeout sets the sequence idle timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.idle = d
		}
	}
}

// WithMaxSequenceLen sets the per-sequence event cap.
func WithMaxSequenceLen(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxLen = n
		}
	}
}

// NewAggregator creates an aggregator delivering to record.
func NewAggregator(record RecordFunc, opts ...Option) *Aggregator {
	a := &Aggregator{
		idle:     DefaultIdleTimeout,
		maxLen:   DefaultMaxSequenceLen,
		record:   record,
		filetype: "",
	}
	for _, opt := range opts {
		opt(a)
	}
	a.idleDone = sync.NewCond(&a.mu)
	a.timer = time.AfterFunc(a.idle, a.onIdle)
	a.timer.Stop()
	return a
}

// SetFiletype changes the active filetype. A pending sequence is closed
// under the old filetype first.
func (a *Aggregator) SetFiletype(ft string) {
	a.mu.Lock()
	var rec Recorded
	emit := false
	if ft != a.filetype {
		rec, emit = a.closeLocked()
		a.filetype = ft
	}
	a.mu.Unlock()

	if emit {
		a.record(rec)
	}
}

// Filetype returns the active filetype.
func (a *Aggregator) Filetype() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filetype
}

// Handle adds a key event to the pending sequence.
func (a *Aggregator) Handle(ev key.Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}

	var recs []Recorded

	// A gap longer than the timeout closes the pending sequence even if
	// the timer has not fired yet (event timestamps are authoritative).
	if n := len(a.pending); n > 0 && ev.Time.Sub(a.pending[n-1].Time) > a.idle {
		if rec, ok := a.closeLocked(); ok {
			recs = append(recs, rec)
		}
	}

	a.pending = append(a.pending, ev)

	if len(a.pending) >= a.maxLen {
		if rec, ok := a.closeLocked(); ok {
			recs = append(recs, rec)
		}
	} else {
		a.timer.Reset(a.idle)
	}
	a.mu.Unlock()

	for _, rec := range recs {
		a.record(rec)
	}
}

// Flush closes and records any pending sequence immediately.
func (a *Aggregator) Flush() {
	a.mu.Lock()
	rec, ok := a.closeLocked()
	a.mu.Unlock()

	if ok {
		a.record(rec)
	}
}

// Close flushes the pending sequence and stops the idle timer.
// The aggregator ignores events after Close. Close does not return
// until an in-flight idle-timer delivery has finished, so the caller
// can tear down the record sink afterwards.
func (a *Aggregator) Close() {
	a.mu.Lock()
	a.closed = true
	a.timer.Stop()
	rec, ok := a.closeLocked()
	for a.inFlight > 0 {
		a.idleDone.Wait()
	}
	a.mu.Unlock()

	if ok {
		a.record(rec)
	}
}

// onIdle runs when the idle timer fires.
func (a *Aggregator) onIdle() {
	a.mu.Lock()
	if a.closed || len(a.pending) == 0 {
		a.mu.Unlock()
		return
	}

	// The timer may have been reset after this fire was scheduled;
	// re-check the actual gap and re-arm if the sequence is still live.
	since := time.Since(a.pending[len(a.pending)-1].Time)
	if since < a.idle {
		a.timer.Reset(a.idle - since)
		a.mu.Unlock()
		return
	}

	rec, ok := a.closeLocked()
	if ok {
		a.inFlight++
	}
	a.mu.Unlock()

	if ok {
		a.record(rec)

		a.mu.Lock()
		a.inFlight--
		a.idleDone.Broadcast()
		a.mu.Unlock()
	}
}

// closeLocked converts the pending events into a Recorded and clears
// the buffer. Caller holds the lock.
func (a *Aggregator) closeLocked() (Recorded, bool) {
	if len(a.pending) == 0 {
		return Recorded{}, false
	}

	first := a.pending[0]
	last := a.pending[len(a.pending)-1]

	rec := Recorded{
		Filetype: a.filetype,
		Sequence: key.JoinTokens(a.pending),
		Keys:     len(a.pending),
		At:       last.Time,
	}
	if len(a.pending) > 1 {
		rec.Duration = last.Time.Sub(first.Time)
	}

	a.pending = a.pending[:0]
	a.timer.Stop()
	return rec, true
}
