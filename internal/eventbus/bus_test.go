package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestSubscriber_CoalescesScreenDelta(t *testing.T) {
	b := New()
	s := b.Subscribe(4)
	defer b.Unsubscribe(s)

	b.Publish(Event{Kind: KindScreenDelta, Session: "a", Generation: 1, Payload: ScreenDeltaPayload{Rows: []int{1, 2}}})
	b.Publish(Event{Kind: KindScreenDelta, Session: "a", Generation: 2, Payload: ScreenDeltaPayload{Rows: []int{2, 3}}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	e, ok := s.Next(ctx)
	if !ok {
		t.Fatal("Next: no event")
	}
	if e.Generation != 2 {
		t.Fatalf("Generation = %d, want 2", e.Generation)
	}
	payload := e.Payload.(ScreenDeltaPayload)
	if len(payload.Rows) != 3 {
		t.Fatalf("coalesced Rows = %v, want 3 unique rows", payload.Rows)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if _, ok := s.Next(ctx2); ok {
		t.Fatal("expected no further events after coalescing")
	}
}

func TestSubscriber_DropsAndReportsLag(t *testing.T) {
	b := New()
	s := b.Subscribe(2)
	defer b.Unsubscribe(s)

	b.Publish(Event{Kind: KindSessionRenamed})
	b.Publish(Event{Kind: KindInputModeChanged})
	b.Publish(Event{Kind: KindScreenModeChanged})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	e, ok := s.Next(ctx)
	if !ok || e.Kind != KindLag {
		t.Fatalf("first event = %+v, ok=%v, want KindLag", e, ok)
	}
	if e.Payload.(LagPayload).Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", e.Payload.(LagPayload).Dropped)
	}
}

func TestUnsubscribe_StopsFutureDelivery(t *testing.T) {
	b := New()
	s := b.Subscribe(4)
	b.Unsubscribe(s)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := s.Next(ctx); ok {
		t.Fatal("expected Next to return false after Unsubscribe")
	}
}
