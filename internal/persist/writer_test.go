package persist

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/keytally/internal/stats"
)

func TestWriterDebounceCoalesces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	store := stats.NewStore()
	store.Record("go", "x", 1, 0, time.Now())

	var saves atomic.Int32
	saved := make(chan struct{}, 8)
	w := NewWriter(path, store.Snapshot,
		WithDebounce(40*time.Millisecond),
		WithOnSaved(func() {
			saves.Add(1)
			saved <- struct{}{}
		}),
	)
	defer w.Close()

	// Burst of notifications inside one window
	for i := 0; i < 5; i++ {
		w.Notify()
	}

	select {
	case <-saved:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced save")
	}

	if got := saves.Load(); got != 1 {
		t.Errorf("saves = %d, want 1 (coalesced)", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stats file not written: %v", err)
	}
}

func TestWriterCloseFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	store := stats.NewStore()
	store.Record("go", "zz", 2, 0, time.Now())

	w := NewWriter(path, store.Snapshot, WithDebounce(time.Hour))
	w.Notify()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file should not exist before debounce fires")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(snap.Filetypes["go"].Entries) != 1 {
		t.Error("close-time flush did not write pending data")
	}
}

func TestWriterNotifyAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	store := stats.NewStore()

	w := NewWriter(path, store.Snapshot, WithDebounce(10*time.Millisecond))
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	info1, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	w.Notify()
	time.Sleep(50 * time.Millisecond)

	info2, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("Notify after Close rewrote the file")
	}
}

func TestWriterErrorCallback(t *testing.T) {
	// Point at a path whose parent is a file so MkdirAll fails.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	store := stats.NewStore()
	errs := make(chan error, 1)
	w := NewWriter(filepath.Join(blocker, "stats.json"), store.Snapshot,
		WithDebounce(10*time.Millisecond),
		WithOnError(func(err error) { errs <- err }),
	)

	w.Notify()
	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected non-nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error callback")
	}
	_ = w.Close() // also fails, ignored
}
