package events_test

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"mediaq/internal/events"
	"mediaq/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, sub *events.Subscriber) events.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return events.Event{}
}

func TestSubscribeDeliversInitialEventFirst(t *testing.T) {
	bus := events.NewBus(4, logging.NewNop())
	sub := bus.Subscribe(events.Event{Type: events.QueueUpdate, Payload: "snapshot"})
	defer bus.Unsubscribe(sub)

	bus.Publish(events.Progress, 10)

	first := receive(t, sub)
	if first.Type != events.QueueUpdate || first.Payload != "snapshot" {
		t.Fatalf("expected initial snapshot first, got %+v", first)
	}
	second := receive(t, sub)
	if second.Type != events.Progress {
		t.Fatalf("expected progress second, got %+v", second)
	}
	if second.Seq <= first.Seq {
		t.Fatalf("expected increasing sequence numbers, got %d then %d", first.Seq, second.Seq)
	}
}

func TestPublishPreservesOrderPerSubscriber(t *testing.T) {
	bus := events.NewBus(64, logging.NewNop())
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	for i := 0; i < 20; i++ {
		bus.Publish(events.Progress, i)
	}
	for _, sub := range []*events.Subscriber{a, b} {
		for i := 0; i < 20; i++ {
			ev := receive(t, sub)
			if ev.Payload != i {
				t.Fatalf("expected payload %d, got %v", i, ev.Payload)
			}
		}
	}
}

func TestSlowSubscriberIsDroppedWithoutBlocking(t *testing.T) {
	bus := events.NewBus(2, logging.NewNop())
	slow := bus.Subscribe()
	fast := bus.Subscribe()
	defer bus.Unsubscribe(fast)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			bus.Publish(events.Progress, i)
			<-fast.Events()
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	if !slow.Dropped() {
		t.Fatal("expected slow subscriber to be dropped")
	}
	select {
	case <-slow.Done():
	default:
		t.Fatal("expected dropped subscriber to be closed")
	}
	if got := bus.Len(); got != 1 {
		t.Fatalf("expected one remaining subscriber, got %d", got)
	}
	// Unsubscribing a dropped subscriber is a no-op.
	bus.Unsubscribe(slow)
	bus.Unsubscribe(slow)
}

func TestConcurrentSubscribeDuringPublish(t *testing.T) {
	bus := events.NewBus(1024, logging.NewNop())
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				bus.Publish(events.QueueUpdate, nil)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		sub := bus.Subscribe()
		bus.Unsubscribe(sub)
	}
	close(stop)
	wg.Wait()

	if got := bus.Len(); got != 0 {
		t.Fatalf("expected no subscribers, got %d", got)
	}
}

func TestCloseDisconnectsAll(t *testing.T) {
	bus := events.NewBus(4, nil)
	sub := bus.Subscribe()
	bus.Close()
	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected closed channel after bus close")
	}
	bus.Unsubscribe(sub)
}
