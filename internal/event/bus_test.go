package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPublishSyncDelivers(t *testing.T) {
	b := NewBus()

	var got any
	b.SubscribeFunc(TopicRecorded, func(_ context.Context, payload any) error {
		got = payload
		return nil
	})

	if err := b.PublishSync(context.Background(), TopicRecorded, "hello"); err != nil {
		t.Fatalf("PublishSync error: %v", err)
	}
	if got != "hello" {
		t.Errorf("payload = %v, want hello", got)
	}
}

func TestPublishSyncContinuesPastErrors(t *testing.T) {
	b := NewBus()
	wantErr := errors.New("boom")

	b.SubscribeFunc(TopicRecorded, func(context.Context, any) error { return wantErr })

	var called bool
	b.SubscribeFunc(TopicRecorded, func(context.Context, any) error {
		called = true
		return nil
	})

	err := b.PublishSync(context.Background(), TopicRecorded, nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("PublishSync error = %v, want %v", err, wantErr)
	}
	if !called {
		t.Error("second handler not called after first errored")
	}
	if b.Stats().HandlerErrors != 1 {
		t.Errorf("HandlerErrors = %d, want 1", b.Stats().HandlerErrors)
	}
}

func TestPublishSyncRecoversPanic(t *testing.T) {
	b := NewBus()
	b.SubscribeFunc(TopicRecorded, func(context.Context, any) error { panic("bad handler") })

	err := b.PublishSync(context.Background(), TopicRecorded, nil)
	if err == nil {
		t.Fatal("PublishSync should surface the panic as an error")
	}
	if b.Stats().HandlerPanics != 1 {
		t.Errorf("HandlerPanics = %d, want 1", b.Stats().HandlerPanics)
	}
}

func TestAsyncPublish(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	var mu sync.Mutex
	var got []any
	done := make(chan struct{})
	b.SubscribeFunc(TopicKeyPressed, func(_ context.Context, payload any) error {
		mu.Lock()
		got = append(got, payload)
		n := len(got)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
		return nil
	})

	for i := 0; i < 3; i++ {
		if err := b.Publish(TopicKeyPressed, i); err != nil {
			t.Fatalf("Publish error: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async delivery")
	}

	if err := b.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}

func TestPublishBeforeStart(t *testing.T) {
	b := NewBus()
	if err := b.Publish(TopicKeyPressed, nil); !errors.Is(err, ErrBusNotRunning) {
		t.Errorf("Publish before Start = %v, want ErrBusNotRunning", err)
	}
}

func TestStopDrainsQueue(t *testing.T) {
	b := NewBus()
	if err := b.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	var mu sync.Mutex
	count := 0
	b.SubscribeFunc(TopicStatsChanged, func(context.Context, any) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 10; i++ {
		_ = b.Publish(TopicStatsChanged, i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.Stop(ctx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 10 {
		t.Errorf("delivered %d events before stop, want 10", count)
	}
}

func TestPublishRacingStop(t *testing.T) {
	// Publishers overlapping Stop must get ErrBusNotRunning, never a
	// send on the closed queue.
	for i := 0; i < 50; i++ {
		b := NewBus()
		if err := b.Start(); err != nil {
			t.Fatalf("Start error: %v", err)
		}

		start := make(chan struct{})
		var wg sync.WaitGroup
		for p := 0; p < 8; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 100; j++ {
					if err := b.Publish(TopicKeyPressed, j); err != nil {
						if !errors.Is(err, ErrBusNotRunning) {
							t.Errorf("Publish error = %v", err)
						}
						return
					}
				}
			}()
		}

		close(start)
		if err := b.Stop(context.Background()); err != nil {
			t.Fatalf("Stop error: %v", err)
		}
		wg.Wait()

		if err := b.Publish(TopicKeyPressed, nil); !errors.Is(err, ErrBusNotRunning) {
			t.Errorf("Publish after Stop = %v, want ErrBusNotRunning", err)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	var called bool
	sub := b.SubscribeFunc(TopicRecorded, func(context.Context, any) error {
		called = true
		return nil
	})
	b.Unsubscribe(sub)

	_ = b.PublishSync(context.Background(), TopicRecorded, nil)
	if called {
		t.Error("handler called after Unsubscribe")
	}
}
