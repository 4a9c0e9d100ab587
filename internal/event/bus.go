// Package event provides the publish/subscribe bus connecting keytally's
// capture, tracking, persistence, and display components.
//
// The bus supports synchronous delivery (PublishSync) for ordering-critical
// paths and asynchronous delivery (Publish) for everything else. Handler
// errors and panics are isolated: one misbehaving subscriber never stops
// delivery to the rest.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Topic identifies an event stream.
type Topic string

// Topics published by keytally components.
const (
	TopicKeyPressed    Topic = "key.pressed"
	TopicRecorded      Topic = "track.recorded"
	TopicStatsChanged  Topic = "stats.changed"
	TopicWindowToggled Topic = "window.toggled"
)

// Handler processes a published event payload.
type Handler func(ctx context.Context, payload any) error

// Bus errors.
var (
	ErrBusNotRunning     = errors.New("event: bus not running")
	ErrBusAlreadyRunning = errors.New("event: bus already running")
	ErrBusClosed         = errors.New("event: bus closed")
)

// Stats reports bus delivery counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	Dropped       uint64
	HandlerErrors uint64
	HandlerPanics uint64
}

// Subscription represents a registered handler.
type Subscription struct {
	topic   Topic
	id      uint64
	handler Handler
}

// Topic returns the topic this subscription listens on.
func (s *Subscription) Topic() Topic { return s.topic }

type published struct {
	topic   Topic
	payload any
}

// Bus is a small topic-based pub/sub bus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]*Subscription
	nextID uint64

	// stateMu orders queue sends against the close in Stop. Publishers
	// take the read side so they do not serialize against each other.
	stateMu sync.RWMutex
	queue   chan published
	running atomic.Bool
	wg      sync.WaitGroup

	published     atomic.Uint64
	delivered     atomic.Uint64
	dropped       atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
}

// Option configures a Bus.
type Option func(*Bus)

// WithQueueSize sets the async delivery queue size.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan published, n)
		}
	}
}

// NewBus creates a new bus. Call Start before publishing async events.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:  make(map[Topic][]*Subscription),
		queue: make(chan published, 256),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start launches the async delivery worker.
func (b *Bus) Start() error {
	if b.running.Swap(true) {
		return ErrBusAlreadyRunning
	}
	b.wg.Add(1)
	go b.deliverLoop()
	return nil
}

// Stop drains the async queue and stops delivery.
// Waits for the worker to finish or the context to be cancelled.
func (b *Bus) Stop(ctx context.Context) error {
	b.stateMu.Lock()
	if !b.running.Swap(false) {
		b.stateMu.Unlock()
		return ErrBusNotRunning
	}
	close(b.queue)
	b.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the bus is accepting async events.
func (b *Bus) IsRunning() bool {
	return b.running.Load()
}

// SubscribeFunc registers a handler for a topic.
func (b *Bus) SubscribeFunc(topic Topic, fn Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{topic: topic, id: b.nextID, handler: fn}
	b.subs[topic] = append(b.subs[topic], sub)
	return sub
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[sub.topic]
	for i, s := range list {
		if s.id == sub.id {
			b.subs[sub.topic] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Publish enqueues an event for asynchronous delivery.
// Drops the event (counted) if the queue is full.
func (b *Bus) Publish(topic Topic, payload any) error {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()

	if !b.running.Load() {
		return ErrBusNotRunning
	}
	b.published.Add(1)
	select {
	case b.queue <- published{topic: topic, payload: payload}:
		return nil
	default:
		b.dropped.Add(1)
		return nil
	}
}

// PublishSync delivers an event to all subscribers before returning.
// Returns the first handler error encountered; delivery continues past
// failing handlers.
func (b *Bus) PublishSync(ctx context.Context, topic Topic, payload any) error {
	b.published.Add(1)
	return b.deliver(ctx, topic, payload)
}

func (b *Bus) deliverLoop() {
	defer b.wg.Done()
	for p := range b.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = b.deliver(ctx, p.topic, p.payload)
		cancel()
	}
}

func (b *Bus) deliver(ctx context.Context, topic Topic, payload any) error {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	var firstErr error
	for _, sub := range subs {
		if err := b.safeInvoke(ctx, sub.handler, payload); err != nil {
			b.handlerErrors.Add(1)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		b.delivered.Add(1)
	}
	return firstErr
}

// safeInvoke runs a handler, converting panics into errors.
func (b *Bus) safeInvoke(ctx context.Context, fn Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err = fmt.Errorf("event: handler panic: %v", r)
		}
	}()
	return fn(ctx, payload)
}

// Stats returns a snapshot of delivery counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Dropped:       b.dropped.Load(),
		HandlerErrors: b.handlerErrors.Load(),
		HandlerPanics: b.handlerPanics.Load(),
	}
}
