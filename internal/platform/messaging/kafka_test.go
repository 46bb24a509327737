package messaging

import (
	"context"
	"testing"
	"time"

	"warden/internal/shared/events"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	err = bus.Subscribe(ctx, "batch.operation.finished", "test-cg", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sent := events.Envelope{EventID: "evt-1", EventType: "batch.operation.finished"}
	if err := bus.Publish(ctx, "batch.operation.finished", sent); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != "evt-1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestPublishIsTopicScoped(t *testing.T) {
	bus, _ := NewKafka(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	_ = bus.Subscribe(ctx, "batch.operation.progress", "test-cg", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})

	if err := bus.Publish(ctx, "batch.operation.finished", events.Envelope{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		t.Fatalf("subscriber received event from another topic: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelledSubscriberIsRemoved(t *testing.T) {
	bus, _ := NewKafka(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan events.Envelope, 1)
	_ = bus.Subscribe(ctx, "batch.operation.progress", "test-cg", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bus.mu.RLock()
		remaining := len(bus.subscribers["batch.operation.progress"])
		bus.mu.RUnlock()
		if remaining == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("cancelled subscriber was never removed")
}
