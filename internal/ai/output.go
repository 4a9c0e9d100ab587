package ai

import (
	"fmt"
	"time"

	"github.com/tidwall/sjson"

	"github.com/dshills/keytally/internal/persist"
)

// Analysis is one provider response, ready to save.
type Analysis struct {
	Provider    string
	Model       string
	Analysis    string
	Suggestions []string
	GeneratedAt time.Time
}

// analysisVersion is the analysis file schema version.
const analysisVersion = 1

// SaveAnalysis writes the analysis JSON file atomically.
func SaveAnalysis(path string, a Analysis) error {
	data, err := encodeAnalysis(a)
	if err != nil {
		return err
	}
	return persist.WriteFileAtomic(path, data)
}

func encodeAnalysis(a Analysis) ([]byte, error) {
	doc := []byte("{}")
	var err error

	set := func(key string, value any) {
		if err != nil {
			return
		}
		doc, err = sjson.SetBytes(doc, key, value)
	}

	set("version", analysisVersion)
	set("generatedAt", a.GeneratedAt.UTC().Format(time.RFC3339))
	set("provider", a.Provider)
	set("model", a.Model)
	set("analysis", a.Analysis)
	if len(a.Suggestions) == 0 {
		set("suggestions", []string{})
	} else {
		set("suggestions", a.Suggestions)
	}

	if err != nil {
		return nil, fmt.Errorf("ai: encode analysis: %w", err)
	}
	return append(doc, '\n'), nil
}
