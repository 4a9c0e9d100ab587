// Package app wires the keytally components into a running recorder.
//
// The application owns the terminal, the key capture loop, the sequence
// aggregator, the statistics store, the debounced persister, and the
// floating statistics window. One-shot commands (report, analyze) reuse
// the same wiring without taking over the terminal.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keytally/internal/ai"
	"github.com/dshills/keytally/internal/config"
	"github.com/dshills/keytally/internal/event"
	"github.com/dshills/keytally/internal/input/capture"
	"github.com/dshills/keytally/internal/input/key"
	"github.com/dshills/keytally/internal/persist"
	"github.com/dshills/keytally/internal/plugin/lua"
	"github.com/dshills/keytally/internal/render/window"
	"github.com/dshills/keytally/internal/stats"
	"github.com/dshills/keytally/internal/track"
)

// ErrQuit is returned by Run when the user quits with Ctrl+Q.
var ErrQuit = errors.New("app: quit requested")

// Application coordinates the keytally components.
type Application struct {
	cfg    config.Config
	logger *Logger

	bus    *event.Bus
	store  *stats.Store
	agg    *track.Aggregator
	writer *persist.Writer
	win    *window.Window
	hooks  *lua.Hooks

	screen     tcell.Screen
	ownsScreen bool

	logClose io.Closer

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures an Application.
type Option func(*Application)

// WithLogger overrides the configured logger.
func WithLogger(l *Logger) Option {
	return func(a *Application) { a.logger = l }
}

// WithScreen supplies a pre-initialized screen instead of attaching to
// the terminal. The caller keeps ownership of it.
func WithScreen(s tcell.Screen) Option {
	return func(a *Application) {
		a.screen = s
		a.ownsScreen = false
	}
}

// New builds an application from the configuration. Previously
// persisted statistics are loaded; a corrupt stats file is quarantined
// and the store starts empty.
func New(cfg config.Config, opts ...Option) (*Application, error) {
	a := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		logger, closer, err := OpenLogger(cfg.Logging)
		if err != nil {
			return nil, err
		}
		a.logger = logger
		a.logClose = closer
	}

	a.store = stats.NewStore(stats.WithMaxEntries(cfg.Stats.MaxEntries))
	if err := a.loadStats(); err != nil {
		a.closeLog()
		return nil, err
	}

	a.writer = persist.NewWriter(cfg.Persist.Path, a.store.Snapshot,
		persist.WithDebounce(cfg.Persist.Debounce()),
		persist.WithOnError(func(err error) {
			a.logger.WithComponent("persist").Error("background save: %v", err)
		}),
		persist.WithOnSaved(func() {
			a.store.ClearDirty()
			a.logger.WithComponent("persist").Debug("stats saved")
		}),
	)

	hooks, err := lua.Load(cfg.Hooks.Script, func(hook string, err error) {
		a.logger.WithComponent("lua").Warn("hook %s failed and was disabled: %v", hook, err)
	})
	if err != nil {
		// A broken script must not block recording.
		a.logger.WithComponent("lua").Warn("hook script not loaded: %v", err)
	}
	a.hooks = hooks

	a.bus = event.NewBus()
	a.bus.SubscribeFunc(event.TopicRecorded, func(_ context.Context, payload any) error {
		if rec, ok := payload.(track.Recorded); ok {
			a.logger.WithComponent("track").Debug("recorded %q (%s, %d keys, %s)",
				rec.Sequence, rec.Filetype, rec.Keys, rec.Duration)
		}
		return nil
	})
	a.bus.SubscribeFunc(event.TopicWindowToggled, func(_ context.Context, payload any) error {
		a.logger.WithComponent("window").Debug("visible=%v", payload)
		return nil
	})

	a.agg = track.NewAggregator(a.onRecorded,
		track.WithIdleTimeout(cfg.Track.IdleTimeout()),
		track.WithMaxSequenceLen(cfg.Track.MaxSequenceLen),
	)
	a.win = window.New(a.store, cfg.Display.TopN,
		window.DefaultTheme(cfg.Display.HeatLow, cfg.Display.HeatHigh))

	return a, nil
}

// loadStats restores the persisted snapshot into the store.
func (a *Application) loadStats() error {
	snap, err := persist.Load(a.cfg.Persist.Path)
	if err != nil {
		if errors.Is(err, persist.ErrCorrupt) || errors.Is(err, persist.ErrFutureVersion) {
			a.logger.WithComponent("persist").Warn("stats file unreadable, quarantining: %v", err)
			if qerr := persist.Quarantine(a.cfg.Persist.Path); qerr != nil {
				return qerr
			}
			return nil
		}
		return err
	}
	a.store.Load(snap)
	return nil
}

// Store returns the statistics store.
func (a *Application) Store() *stats.Store { return a.store }

// Logger returns the application logger.
func (a *Application) Logger() *Logger { return a.logger }

// SetFiletype sets the filetype new sequences are recorded under.
func (a *Application) SetFiletype(ft string) {
	a.agg.SetFiletype(ft)
}

// onRecorded receives closed sequences from the aggregator.
func (a *Application) onRecorded(rec track.Recorded) {
	ft, keep := a.hooks.OnRecord(rec.Filetype, rec.Sequence, rec.Keys)
	if !keep {
		a.logger.WithComponent("track").Debug("hook dropped sequence %q", rec.Sequence)
		return
	}

	a.store.Record(ft, rec.Sequence, rec.Keys, rec.Duration, rec.At)
	a.writer.Notify()

	_ = a.bus.Publish(event.TopicRecorded, rec)
	_ = a.bus.Publish(event.TopicStatsChanged, nil)
}

// Run captures keys until the context is cancelled or the user quits.
//
// Ctrl+Q quits, Ctrl+T toggles the statistics window, and Ctrl+F cycles
// its view. Every other key is recorded, dismissing the window if open.
func (a *Application) Run(ctx context.Context) error {
	if a.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("app: create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("app: init screen: %w", err)
		}
		a.screen = screen
		a.ownsScreen = true
	}
	if a.ownsScreen {
		defer a.screen.Fini()
	}

	if err := a.bus.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	source := capture.NewSource(a.screen)
	source.OnResize(func(int, int) {
		a.screen.Sync()
	})
	source.Start(ctx)

	a.logger.Info("recording started (Ctrl+T window, Ctrl+F view, Ctrl+Q quit)")
	a.render()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
			break loop
		case ev, ok := <-source.Events():
			if !ok {
				break loop
			}
			if quit := a.handleKey(ev); quit {
				runErr = ErrQuit
				break loop
			}
			a.render()
		}
	}

	cancel()
	<-source.Done()

	if err := a.Shutdown(context.Background()); err != nil {
		a.logger.Error("shutdown: %v", err)
		if runErr == nil || errors.Is(runErr, ErrQuit) {
			runErr = err
		}
	}
	return runErr
}

// handleKey dispatches one key event. Returns true on quit.
func (a *Application) handleKey(ev key.Event) bool {
	if ev.Key == key.KeyRune && ev.Modifiers.HasCtrl() {
		switch ev.Rune {
		case 'q':
			return true
		case 't':
			visible := a.win.Toggle()
			_ = a.bus.Publish(event.TopicWindowToggled, visible)
			return false
		case 'f':
			if a.win.Visible() {
				a.win.CycleView()
				return false
			}
		}
	}
	// The window is read-only; any other key dismisses it and is still
	// recorded below.
	if a.win.Visible() {
		a.win.Hide()
	}

	a.agg.Handle(ev)
	_ = a.bus.Publish(event.TopicKeyPressed, ev)
	return false
}

// render redraws the status line and the statistics window.
func (a *Application) render() {
	a.screen.Clear()

	ft := a.agg.Filetype()
	if ft == "" {
		ft = stats.DefaultFiletype
	}
	var total uint64
	for _, sum := range a.store.Overview(0) {
		total += sum.Totals.Sequences
	}
	status := fmt.Sprintf(" keytally · %s · %d sequences · C-t stats  C-q quit", ft, total)

	style := tcell.StyleDefault.Reverse(true)
	w, h := a.screen.Size()
	col := 0
	for _, r := range status {
		if col >= w {
			break
		}
		a.screen.SetContent(col, h-1, r, nil, style)
		col++
	}
	for ; col < w; col++ {
		a.screen.SetContent(col, h-1, ' ', nil, style)
	}

	a.win.Draw(a.screen)
	a.screen.Show()
}

// Report writes the statistics tables as plain text.
// The overview comes first, then one table per filetype.
func (a *Application) Report(w io.Writer) error {
	now := time.Now()

	if _, err := fmt.Fprintln(w, window.OverviewTable(a.store.Overview(0), now).String()); err != nil {
		return err
	}
	for _, ft := range a.store.Filetypes() {
		totals, ok := a.store.Totals(ft)
		if !ok {
			continue
		}
		tbl := window.FiletypeTable(ft, totals, a.store.TopN(ft, a.cfg.Display.TopN), now)
		if _, err := fmt.Fprintf(w, "\n%s\n", tbl.String()); err != nil {
			return err
		}
	}
	return nil
}

// Analyze sends the current statistics to the configured AI provider
// and writes the result to the analysis file. The report_note hook, if
// defined, contributes extra context to the prompt.
func (a *Application) Analyze(ctx context.Context) (ai.Analysis, error) {
	bridge, err := ai.New(a.cfg.AI)
	if err != nil {
		return ai.Analysis{}, err
	}

	analysis, err := bridge.Analyze(ctx, a.store.Snapshot(), a.hooks.ReportNote())
	if err != nil {
		return ai.Analysis{}, err
	}

	if err := ai.SaveAnalysis(a.cfg.AI.OutputPath, analysis); err != nil {
		return ai.Analysis{}, err
	}
	a.logger.WithComponent("ai").Info("analysis written to %s", a.cfg.AI.OutputPath)
	return analysis, nil
}

// Shutdown flushes pending state and stops the components. Safe to
// call more than once; later calls return the first result.
//
// Order matters: the aggregator flushes its pending sequence into the
// store before the writer's final save, and the bus drains last so
// subscribers see the tail events.
func (a *Application) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.agg.Close()

		if err := a.writer.Close(); err != nil {
			a.shutdownErr = errors.Join(a.shutdownErr, err)
		}

		if a.bus.IsRunning() {
			stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := a.bus.Stop(stopCtx); err != nil {
				a.shutdownErr = errors.Join(a.shutdownErr, err)
			}
			cancel()
		}

		a.hooks.Close()
		a.closeLog()
	})
	return a.shutdownErr
}

func (a *Application) closeLog() {
	if a.logClose != nil {
		_ = a.logClose.Close()
		a.logClose = nil
	}
}
