package persist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/keytally/internal/stats"
)

func sampleSnapshot() stats.Snapshot {
	s := stats.NewStore()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	s.Record("go", "diw", 3, 250*time.Millisecond, now)
	s.Record("go", "diw", 3, 350*time.Millisecond, now.Add(time.Minute))
	s.Record("md", "<C-s>", 1, 0, now)
	return s.Snapshot()
}

func TestEncodeShape(t *testing.T) {
	data, err := Encode(sampleSnapshot())
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	if v := gjson.GetBytes(data, "version").Int(); v != CurrentVersion {
		t.Errorf("version = %d, want %d", v, CurrentVersion)
	}
	if !gjson.GetBytes(data, "updatedAt").Exists() {
		t.Error("updatedAt missing")
	}
	if n := gjson.GetBytes(data, "filetypes.go.entries.#").Int(); n != 1 {
		t.Errorf("go entries = %d, want 1", n)
	}
	if seq := gjson.GetBytes(data, "filetypes.go.entries.0.sequence").String(); seq != "diw" {
		t.Errorf("sequence = %q, want diw", seq)
	}
	if c := gjson.GetBytes(data, "filetypes.go.entries.0.count").Int(); c != 2 {
		t.Errorf("count = %d, want 2", c)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "stats.json")
	snap := sampleSnapshot()

	if err := Save(path, snap); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	store := stats.NewStore()
	store.Load(loaded)

	totals, ok := store.Totals("go")
	if !ok || totals.Sequences != 2 || totals.Keys != 6 {
		t.Errorf("go totals after round trip = %+v", totals)
	}
	entries := store.TopN("go", 1)
	if len(entries) != 1 || entries[0].AvgDuration != 300*time.Millisecond {
		t.Errorf("entries after round trip = %+v", entries)
	}
}

func TestLoadMissingFile(t *testing.T) {
	snap, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load of missing file should not error, got %v", err)
	}
	if !snap.IsEmpty() {
		t.Error("missing file should load as empty snapshot")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not json":       "{{{{",
		"no version":     `{"filetypes":{}}`,
		"string version": `{"version":"1"}`,
		"bad filetypes":  `{"version":1,"filetypes":[1,2]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(data)); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Decode = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version":99,"filetypes":{}}`))
	if !errors.Is(err, ErrFutureVersion) {
		t.Errorf("Decode = %v, want ErrFutureVersion", err)
	}
}

func TestQuarantine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	if err := os.WriteFile(path, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Quarantine(path); err != nil {
		t.Fatalf("Quarantine error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original file still present after quarantine")
	}
	data, err := os.ReadFile(path + ".bad")
	if err != nil || string(data) != "junk" {
		t.Errorf("quarantined file contents = %q, %v", data, err)
	}
}

func TestSaveAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.json")
	if err := Save(path, sampleSnapshot()); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
