package persist

import (
	"sync"
	"time"

	"github.com/dshills/keytally/internal/stats"
)

// DefaultDebounce is the delay between a change notification and the
// disk write it schedules.
const DefaultDebounce = 2 * time.Second

// SnapshotFunc supplies the snapshot to persist.
type SnapshotFunc func() stats.Snapshot

// Writer persists snapshots on a debounce.
//
// Notify schedules a write DefaultDebounce after the first unsaved
// change; further notifications within the window coalesce into the
// same write. Close performs a final synchronous flush.
type Writer struct {
	mu       sync.Mutex
	path     string
	debounce time.Duration
	source   SnapshotFunc
	onError  func(error)
	onSaved  func()

	timer  *time.Timer
	armed  bool
	closed bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithDebounce sets the write delay.
func WithDebounce(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnError sets a callback for background write failures.
func WithOnError(fn func(error)) WriterOption {
	return func(w *Writer) { w.onError = fn }
}

// WithOnSaved sets a callback invoked after each successful write.
func WithOnSaved(fn func()) WriterOption {
	return func(w *Writer) { w.onSaved = fn }
}

// NewWriter creates a writer persisting snapshots from source to path.
func NewWriter(path string, source SnapshotFunc, opts ...WriterOption) *Writer {
	w := &Writer{
		path:     path,
		debounce: DefaultDebounce,
		source:   source,
		onError:  func(error) {},
		onSaved:  func() {},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
	w.timer.Stop()
	return w
}

// Path returns the stats file path.
func (w *Writer) Path() string { return w.path }

// Notify schedules a debounced write.
func (w *Writer) Notify() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.armed {
		return
	}
	w.armed = true
	w.timer.Reset(w.debounce)
}

// fire runs on the debounce timer.
func (w *Writer) fire() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.armed = false
	w.mu.Unlock()

	if err := w.Flush(); err != nil {
		w.onError(err)
	}
}

// Flush writes the current snapshot synchronously.
func (w *Writer) Flush() error {
	if err := Save(w.path, w.source()); err != nil {
		return err
	}
	w.onSaved()
	return nil
}

// Close stops the debounce timer and performs a final flush.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.timer.Stop()
	w.mu.Unlock()

	return w.Flush()
}
