package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/crmforge/approval-engine/internal/domain/event"
)

func TestDispatcher_Dispatch(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var calls int32
	d.Subscribe(event.TypeInstanceSubmitted, func(ctx context.Context, evt *event.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	d.Subscribe(event.TypeInstanceSubmitted, func(ctx context.Context, evt *event.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	evt := event.NewEvent(event.TypeInstanceSubmitted, "acme", 1, nil)
	if err := d.Dispatch(context.Background(), evt); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 handler calls, got %d", calls)
	}
}

func TestDispatcher_DispatchStopsOnError(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	var secondCalled bool
	d.SubscribeNamed(event.TypeInstanceRejected, "failing", func(ctx context.Context, evt *event.Event) error {
		return errors.New("boom")
	})
	d.SubscribeNamed(event.TypeInstanceRejected, "after", func(ctx context.Context, evt *event.Event) error {
		secondCalled = true
		return nil
	})

	evt := event.NewEvent(event.TypeInstanceRejected, "acme", 1, nil)
	if err := d.Dispatch(context.Background(), evt); err == nil {
		t.Fatal("expected error from failing handler")
	}
	if secondCalled {
		t.Error("handlers after a failure should not run")
	}
}

func TestDispatcher_HandlerPanicIsRecovered(t *testing.T) {
	d := NewDispatcher()
	defer d.Close()

	d.Subscribe(event.TypeInstanceApproved, func(ctx context.Context, evt *event.Event) error {
		panic("handler exploded")
	})

	evt := event.NewEvent(event.TypeInstanceApproved, "acme", 1, nil)
	if err := d.Dispatch(context.Background(), evt); err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

func TestDispatcher_DispatchAsyncDrainsOnClose(t *testing.T) {
	d := NewDispatcher()

	var calls int32
	d.Subscribe(event.TypeStepAdvanced, func(ctx context.Context, evt *event.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	for i := 0; i < 10; i++ {
		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeStepAdvanced, "acme", int64(i), nil))
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 10 {
		t.Errorf("expected 10 async calls after Close, got %d", got)
	}
}

func TestDispatcher_ClosedRejectsDispatch(t *testing.T) {
	d := NewDispatcher()
	d.Close()

	evt := event.NewEvent(event.TypeInstanceRecalled, "acme", 1, nil)
	if err := d.Dispatch(context.Background(), evt); err == nil {
		t.Error("expected dispatch on closed dispatcher to fail")
	}
}
