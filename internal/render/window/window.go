// Package window renders keytally statistics in a read-only floating
// window over a tcell screen.
//
// The window lays out a box-drawing table of the top sequences for one
// filetype, or an overview across filetypes, and centers it on the
// screen. Layout is separated from drawing: tables render to plain
// lines first, so the -report path and the tests share the exact
// layout the floating window shows.
package window

import (
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/keytally/internal/stats"
)

// ViewOverview selects the cross-filetype overview.
const ViewOverview = -1

// Window is the floating statistics window.
type Window struct {
	mu      sync.Mutex
	store   *stats.Store
	topN    int
	theme   Theme
	visible bool

	// view is ViewOverview or an index into the sorted filetype list.
	view int
}

// New creates a hidden window over the given store.
func New(store *stats.Store, topN int, theme Theme) *Window {
	if topN < 1 {
		topN = 1
	}
	return &Window{
		store: store,
		topN:  topN,
		theme: theme,
		view:  ViewOverview,
	}
}

// Toggle flips visibility and returns the new state.
func (w *Window) Toggle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = !w.visible
	return w.visible
}

// Hide makes the window invisible.
func (w *Window) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
}

// Visible reports whether the window is shown.
func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// CycleView advances overview -> first filetype -> ... -> overview.
func (w *Window) CycleView() {
	fts := w.store.Filetypes()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.view++
	if w.view >= len(fts) {
		w.view = ViewOverview
	}
}

// Table builds the current view's table.
func (w *Window) Table(now time.Time) Table {
	fts := w.store.Filetypes()

	w.mu.Lock()
	view := w.view
	topN := w.topN
	w.mu.Unlock()

	if view >= 0 && view < len(fts) {
		ft := fts[view]
		totals, _ := w.store.Totals(ft)
		return FiletypeTable(ft, totals, w.store.TopN(ft, topN), now)
	}
	return OverviewTable(w.store.Overview(topN), now)
}

// Draw renders the window centered on the screen. No-op when hidden.
func (w *Window) Draw(screen tcell.Screen) {
	if !w.Visible() {
		return
	}

	table := w.Table(time.Now())
	sw, sh := screen.Size()

	width := table.Width()
	height := table.Height()
	x := (sw - width) / 2
	if x < 0 {
		x = 0
	}
	y := (sh - height) / 2
	if y < 0 {
		y = 0
	}

	for i, line := range table.Lines {
		if y+i >= sh {
			break
		}
		style := w.lineStyle(table, i)
		drawLine(screen, x, y+i, sw, line, style)
	}
}

// lineStyle picks the style for a frame line.
func (w *Window) lineStyle(t Table, i int) tcell.Style {
	if count, ok := t.RowCounts[i]; ok {
		return w.theme.HeatStyle(count, t.MaxCount)
	}
	switch i {
	case 0:
		return w.theme.Title
	case 1:
		return w.theme.Header
	default:
		return w.theme.Border
	}
}

// drawLine writes a string at (x, y), clipping at the screen edge.
func drawLine(screen tcell.Screen, x, y, maxX int, line string, style tcell.Style) {
	cx := x
	for _, r := range line {
		if cx >= maxX {
			return
		}
		screen.SetContent(cx, y, r, nil, style)
		cx += runeWidth(r)
	}
}

// runeWidth returns the display width of a rune, minimum 1 so control
// characters cannot stall the column cursor.
func runeWidth(r rune) int {
	w := uniseg.StringWidth(string(r))
	if w < 1 {
		return 1
	}
	return w
}

// String returns the table as plain text, one frame line per row.
func (t Table) String() string {
	return strings.Join(t.Lines, "\n")
}
