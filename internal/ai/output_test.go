package ai

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestSaveAnalysis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	a := Analysis{
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-20250514",
		Analysis:    "heavy use of character-wise deletes",
		Suggestions: []string{"prefer diw over xxx"},
		GeneratedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}

	if err := SaveAnalysis(path, a); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !gjson.ValidBytes(data) {
		t.Fatalf("output is not valid JSON:\n%s", data)
	}

	doc := gjson.ParseBytes(data)
	if got := doc.Get("version").Int(); got != analysisVersion {
		t.Errorf("version = %d", got)
	}
	if got := doc.Get("generatedAt").String(); got != "2026-08-28T10:00:00Z" {
		t.Errorf("generatedAt = %q", got)
	}
	if got := doc.Get("provider").String(); got != "anthropic" {
		t.Errorf("provider = %q", got)
	}
	if got := doc.Get("analysis").String(); got != a.Analysis {
		t.Errorf("analysis = %q", got)
	}
	if got := doc.Get("suggestions").Array(); len(got) != 1 || got[0].String() != "prefer diw over xxx" {
		t.Errorf("suggestions = %v", got)
	}
}

func TestSaveAnalysisEmptySuggestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	if err := SaveAnalysis(path, Analysis{Analysis: "x", GeneratedAt: time.Now()}); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	data, _ := os.ReadFile(path)
	sug := gjson.GetBytes(data, "suggestions")
	if !sug.IsArray() {
		t.Errorf("suggestions should serialize as an empty array, got %s", sug.Raw)
	}
}
