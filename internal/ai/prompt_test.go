package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/dshills/keytally/internal/stats"
)

func TestBuildPrompt(t *testing.T) {
	s := stats.NewStore()
	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	s.Record("go", "diw", 3, 200*time.Millisecond, now)
	s.Record("go", "diw", 3, 200*time.Millisecond, now)
	s.Record("md", "gg", 2, 0, now)

	prompt := BuildPrompt(s.Snapshot(), "")

	if !strings.Contains(prompt, `filetype "go"`) || !strings.Contains(prompt, `filetype "md"`) {
		t.Errorf("prompt missing filetype headers:\n%s", prompt)
	}
	if !strings.Contains(prompt, "diw") || !strings.Contains(prompt, "count=2") {
		t.Errorf("prompt missing entry data:\n%s", prompt)
	}
	// go sorts before md
	if strings.Index(prompt, `"go"`) > strings.Index(prompt, `"md"`) {
		t.Errorf("filetypes should be in sorted order:\n%s", prompt)
	}
	if strings.Contains(prompt, "Additional context") {
		t.Error("empty note should add no context section")
	}
}

func TestBuildPromptNote(t *testing.T) {
	s := stats.NewStore()
	s.Record("go", "x", 1, 0, time.Now())

	prompt := BuildPrompt(s.Snapshot(), "  user works on a Go monorepo  ")
	if !strings.Contains(prompt, "user works on a Go monorepo") {
		t.Errorf("note missing:\n%s", prompt)
	}
}

func TestBuildPromptCapsEntries(t *testing.T) {
	s := stats.NewStore()
	now := time.Now()
	for i := 0; i < promptTopN+10; i++ {
		s.Record("go", strings.Repeat("x", i+1), 1, 0, now)
	}

	prompt := BuildPrompt(s.Snapshot(), "")
	if got := strings.Count(prompt, "count="); got != promptTopN {
		t.Errorf("prompt lists %d entries, want %d", got, promptTopN)
	}
}
