package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/keytally/internal/stats"
)

// promptTopN caps the sequences included per filetype; the model does
// not need the long tail to characterize usage.
const promptTopN = 15

// systemPrompt asks the provider for a structured JSON verdict.
const systemPrompt = `You are an editor usage analyst. You receive keystroke sequence
statistics collected per filetype: each sequence with how often it was typed, the
average time it took, and when it was last used. Respond ONLY with a JSON object with
keys: "analysis" (string, 2-4 paragraphs describing usage patterns, habits, and
inefficiencies) and "suggestions" (array of strings, each one concrete improvement,
such as a mapping or motion the user should adopt). Do not wrap the JSON in markdown.`

// BuildPrompt renders a snapshot into the analysis prompt.
func BuildPrompt(snap stats.Snapshot, note string) string {
	var sb strings.Builder

	sb.WriteString("Keystroke statistics")
	if !snap.TakenAt.IsZero() {
		fmt.Fprintf(&sb, " captured %s", snap.TakenAt.Format("2006-01-02 15:04"))
	}
	sb.WriteString(":\n\n")

	// Stable filetype order
	fts := make([]string, 0, len(snap.Filetypes))
	for ft := range snap.Filetypes {
		fts = append(fts, ft)
	}
	sort.Strings(fts)

	for _, ft := range fts {
		ftStats := snap.Filetypes[ft]
		fmt.Fprintf(&sb, "filetype %q: %d sequences, %d keys", ft, ftStats.Totals.Sequences, ftStats.Totals.Keys)
		if !ftStats.Totals.FirstSeen.IsZero() {
			fmt.Fprintf(&sb, ", active %s to %s",
				ftStats.Totals.FirstSeen.Format("2006-01-02"),
				ftStats.Totals.LastSeen.Format("2006-01-02"))
		}
		sb.WriteString("\n")

		entries := ftStats.Entries
		if len(entries) > promptTopN {
			entries = entries[:promptTopN]
		}
		for _, e := range entries {
			fmt.Fprintf(&sb, "  %-28s count=%-6d avg=%s\n", e.Sequence, e.Count, formatAvg(e.AvgDuration))
		}
		sb.WriteString("\n")
	}

	if note = strings.TrimSpace(note); note != "" {
		sb.WriteString("Additional context from the user:\n")
		sb.WriteString(note)
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatAvg(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
