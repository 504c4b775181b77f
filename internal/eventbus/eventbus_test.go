package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New[int]()
	defer bus.Close()

	sub := bus.Subscribe()
	bus.Publish(42)

	select {
	case got := <-sub:
		if got != 42 {
			t.Fatalf("expected 42, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := New[int]()
	defer bus.Close()

	_ = bus.Subscribe()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New[string]()
	defer bus.Close()

	sub := bus.Subscribe()
	bus.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := New[int]()
	sub := bus.Subscribe()
	bus.Close()
	bus.Close()
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed")
	}
	bus.Publish(1) // must not panic after close
	if got := bus.Subscribe(); got == nil {
		t.Fatal("subscribe after close should return a closed channel, not nil")
	}
}
