package window

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/dshills/keytally/internal/stats"
)

// maxSequenceCells is the display width budget for the sequence column.
const maxSequenceCells = 24

// Box-drawing runes for the table frame.
const (
	boxH  = '─'
	boxV  = '│'
	boxTL = '┌'
	boxTR = '┐'
	boxBL = '└'
	boxBR = '┘'
	boxLT = '├'
	boxRT = '┤'
)

// Table is the laid-out text form of one stats view, ready to draw.
// Row zero is the header; Lines carries the full frame including
// borders so plain-text output (-report) reuses the same layout.
type Table struct {
	Title string
	Lines []string

	// RowCounts maps frame line index to the row's count for heat
	// coloring; lines not present are chrome.
	RowCounts map[int]uint64

	// MaxCount is the largest count on the page.
	MaxCount uint64
}

// Width returns the table's display width in cells.
func (t Table) Width() int {
	if len(t.Lines) == 0 {
		return 0
	}
	return displayWidth(t.Lines[0])
}

// Height returns the number of frame lines.
func (t Table) Height() int {
	return len(t.Lines)
}

// FiletypeTable lays out the top entries for one filetype.
func FiletypeTable(filetype string, totals stats.Totals, entries []stats.Entry, now time.Time) Table {
	header := []string{"#", "sequence", "count", "avg", "last"}
	rows := make([][]string, 0, len(entries))
	var maxCount uint64

	for i, e := range entries {
		if e.Count > maxCount {
			maxCount = e.Count
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			ellipsize(e.Sequence, maxSequenceCells),
			fmt.Sprintf("%d", e.Count),
			formatDuration(e.AvgDuration),
			formatAgo(e.LastUsed, now),
		})
	}

	title := fmt.Sprintf(" keytally · %s · %d keys ", filetype, totals.Keys)
	counts := make([]uint64, len(entries))
	for i, e := range entries {
		counts[i] = e.Count
	}
	return frame(title, header, rows, counts, maxCount, "no sequences recorded yet")
}

// OverviewTable lays out the cross-filetype summary.
func OverviewTable(summaries []stats.Summary, now time.Time) Table {
	header := []string{"filetype", "seqs", "keys", "top", "last"}
	rows := make([][]string, 0, len(summaries))
	counts := make([]uint64, 0, len(summaries))
	var maxCount uint64

	for _, s := range summaries {
		if s.Totals.Sequences > maxCount {
			maxCount = s.Totals.Sequences
		}
		rows = append(rows, []string{
			s.Filetype,
			fmt.Sprintf("%d", s.Totals.Sequences),
			fmt.Sprintf("%d", s.Totals.Keys),
			ellipsize(s.Top.Sequence, maxSequenceCells),
			formatAgo(s.Totals.LastSeen, now),
		})
		counts = append(counts, s.Totals.Sequences)
	}

	return frame(" keytally · overview ", header, rows, counts, maxCount, "no activity recorded yet")
}

// frame assembles the bordered table.
func frame(title string, header []string, rows [][]string, counts []uint64, maxCount uint64, empty string) Table {
	cols := len(header)
	widths := make([]int, cols)
	for i, h := range header {
		widths[i] = displayWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	renderRow := func(cells []string) string {
		var sb strings.Builder
		sb.WriteRune(boxV)
		for i, cell := range cells {
			sb.WriteByte(' ')
			sb.WriteString(pad(cell, widths[i]))
			sb.WriteByte(' ')
			if i < cols-1 {
				sb.WriteRune(boxV)
			}
		}
		sb.WriteRune(boxV)
		return sb.String()
	}

	inner := displayWidth(renderRow(header)) - 2

	// Body: rows, or the empty placeholder centered
	var body []string
	if len(rows) == 0 {
		line := pad(ellipsize(empty, inner-2), inner-2)
		body = []string{string(boxV) + " " + line + " " + string(boxV)}
	} else {
		for _, row := range rows {
			body = append(body, renderRow(row))
		}
	}

	top := string(boxTL) + fitTitle(title, inner) + string(boxTR)
	sep := string(boxLT) + strings.Repeat(string(boxH), inner) + string(boxRT)
	bottom := string(boxBL) + strings.Repeat(string(boxH), inner) + string(boxBR)

	lines := make([]string, 0, len(body)+4)
	lines = append(lines, top, renderRow(header), sep)
	rowStart := len(lines)
	lines = append(lines, body...)
	lines = append(lines, bottom)

	rowCounts := make(map[int]uint64, len(counts))
	if len(rows) > 0 {
		for i, c := range counts {
			rowCounts[rowStart+i] = c
		}
	}

	return Table{
		Title:     strings.TrimSpace(title),
		Lines:     lines,
		RowCounts: rowCounts,
		MaxCount:  maxCount,
	}
}

// fitTitle embeds the title into a horizontal border of the given width.
func fitTitle(title string, width int) string {
	title = ellipsize(title, width)
	fill := width - displayWidth(title)
	if fill < 0 {
		fill = 0
	}
	return title + strings.Repeat(string(boxH), fill)
}

// pad right-pads a cell to the given display width.
func pad(s string, width int) string {
	gap := width - displayWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// ellipsize trims s to at most width display cells, appending "…" when
// anything was cut. Wide runes are never split.
func ellipsize(s string, width int) string {
	if displayWidth(s) <= width {
		return s
	}
	if width < 1 {
		return ""
	}

	budget := width - 1 // reserve a cell for the ellipsis
	var sb strings.Builder
	used := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		w := displayWidth(cluster)
		if used+w > budget {
			break
		}
		sb.WriteString(cluster)
		used += w
	}
	return sb.String() + "…"
}

// displayWidth returns the terminal cell width of a string.
func displayWidth(s string) int {
	return uniseg.StringWidth(s)
}

// formatDuration renders a duration compactly: "—" for zero,
// milliseconds under a second, otherwise seconds with one decimal.
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "—"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

// formatAgo renders how long ago t was relative to now.
func formatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	d := now.Sub(t)
	switch {
	case d < 0 || d < 2*time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
