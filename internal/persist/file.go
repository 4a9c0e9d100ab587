// Package persist stores keystroke statistics as a versioned JSON file.
//
// Writes are debounced and atomic (temp file + rename); loads tolerate a
// missing file and quarantine unreadable or future-versioned files rather
// than overwriting them.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/keytally/internal/stats"
)

// CurrentVersion is the stats file schema version.
const CurrentVersion = 1

// ErrCorrupt marks a stats file that could not be interpreted.
var ErrCorrupt = errors.New("persist: corrupt stats file")

// ErrFutureVersion marks a stats file written by a newer keytally.
var ErrFutureVersion = errors.New("persist: stats file version is newer than this build")

// fileDoc is the on-disk document shape. updatedAt is stamped
// separately so the serialized snapshot stays byte-stable for tests.
type fileDoc struct {
	Version   int                            `json:"version"`
	Filetypes map[string]stats.FiletypeStats `json:"filetypes"`
}

// Encode serializes a snapshot into the on-disk JSON document.
func Encode(snap stats.Snapshot) ([]byte, error) {
	doc := fileDoc{
		Version:   CurrentVersion,
		Filetypes: snap.Filetypes,
	}
	if doc.Filetypes == nil {
		doc.Filetypes = map[string]stats.FiletypeStats{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persist: encode: %w", err)
	}

	data, err = sjson.SetBytes(data, "updatedAt", snap.TakenAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	if err != nil {
		return nil, fmt.Errorf("persist: stamp updatedAt: %w", err)
	}
	return data, nil
}

// Decode parses an on-disk document into a snapshot.
// The document is probed with gjson before unmarshalling so a torn or
// foreign file fails cleanly instead of half-loading.
func Decode(data []byte) (stats.Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return stats.Snapshot{}, ErrCorrupt
	}

	version := gjson.GetBytes(data, "version")
	if !version.Exists() || version.Type != gjson.Number {
		return stats.Snapshot{}, ErrCorrupt
	}
	if version.Int() > CurrentVersion {
		return stats.Snapshot{}, fmt.Errorf("%w: version %d", ErrFutureVersion, version.Int())
	}
	if ft := gjson.GetBytes(data, "filetypes"); ft.Exists() && !ft.IsObject() {
		return stats.Snapshot{}, ErrCorrupt
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return stats.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	snap := stats.Snapshot{Filetypes: doc.Filetypes}
	if snap.Filetypes == nil {
		snap.Filetypes = map[string]stats.FiletypeStats{}
	}
	return snap, nil
}

// Load reads the stats file at path.
// A missing file returns an empty snapshot and no error.
func Load(path string) (stats.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats.Snapshot{Filetypes: map[string]stats.FiletypeStats{}}, nil
		}
		return stats.Snapshot{}, fmt.Errorf("persist: read %s: %w", path, err)
	}
	return Decode(data)
}

// Quarantine renames an unreadable stats file to <path>.bad so a fresh
// file can be started without destroying the evidence.
func Quarantine(path string) error {
	if err := os.Rename(path, path+".bad"); err != nil {
		return fmt.Errorf("persist: quarantine %s: %w", path, err)
	}
	return nil
}

// Save writes a snapshot to path atomically.
func Save(path string, snap stats.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to path via a temp file in the same
// directory. Also used by the AI bridge for the analysis file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persist: temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("persist: write %s: %w", tmpName, werr)
		}
		return fmt.Errorf("persist: close %s: %w", tmpName, cerr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("persist: rename %s: %w", path, err)
	}
	return nil
}
