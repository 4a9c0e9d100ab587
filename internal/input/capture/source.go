// Package capture decodes terminal key input into keytally key events.
//
// The capture package owns the tcell poll loop. It converts tcell key
// events into key.Event values and delivers them on a channel; resize
// events are forwarded to an optional callback. Decoding is separated
// from polling so it can be tested without a live terminal.
package capture

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keytally/internal/input/key"
)

// Source captures key events from a tcell screen.
type Source struct {
	screen tcell.Screen

	events chan key.Event

	mu       sync.Mutex
	onResize func(width, height int)
	running  bool
	done     chan struct{}
}

// NewSource creates a capture source for the given screen.
func NewSource(screen tcell.Screen) *Source {
	return &Source{
		screen: screen,
		events: make(chan key.Event, 64),
		done:   make(chan struct{}),
	}
}

// Events returns the channel of decoded key events.
// The channel is closed when the poll loop exits.
func (s *Source) Events() <-chan key.Event {
	return s.events
}

// OnResize registers a callback for terminal resize events.
// The callback runs on the poll goroutine.
func (s *Source) OnResize(fn func(width, height int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResize = fn
}

// Start begins polling the screen on a new goroutine.
// The loop exits when the context is cancelled or the screen is finalized.
func (s *Source) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	// Wake the poll loop when the context is cancelled. PollEvent blocks,
	// so an interrupt event is posted to unstick it.
	go func() {
		select {
		case <-ctx.Done():
			_ = s.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-s.done:
		}
	}()

	go s.poll(ctx)
}

// Done returns a channel closed when the poll loop has exited.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

func (s *Source) poll(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	for {
		if ctx.Err() != nil {
			return
		}

		ev := s.screen.PollEvent()
		if ev == nil {
			// Screen finalized
			return
		}

		switch tev := ev.(type) {
		case *tcell.EventKey:
			decoded, ok := Decode(tev)
			if !ok {
				continue
			}
			select {
			case s.events <- decoded:
			case <-ctx.Done():
				return
			}
		case *tcell.EventResize:
			s.mu.Lock()
			fn := s.onResize
			s.mu.Unlock()
			if fn != nil {
				w, h := tev.Size()
				fn(w, h)
			}
		case *tcell.EventInterrupt:
			// Posted on shutdown; loop condition handles exit.
		}
	}
}
