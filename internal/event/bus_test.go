package event

import (
	"strings"
	"testing"
)

func TestPublishOrdersByPriorityThenRegistration(t *testing.T) {
	b := NewBus()
	var order []string
	add := func(name string, p Priority) {
		if err := b.Subscribe(Damage, name, p, func(*Event) { order = append(order, name) }); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", name, err)
		}
	}
	add("low-1", PriorityLow)
	add("high-1", PriorityHigh)
	add("normal-1", PriorityNormal)
	add("high-2", PriorityHigh)
	add("low-2", PriorityLow)

	b.Publish(Damage, nil)
	got := strings.Join(order, ",")
	want := "high-1,high-2,normal-1,low-1,low-2"
	if got != want {
		t.Fatalf("order = %s, want %s", got, want)
	}
}

func TestCancelIsVisibleToLaterListeners(t *testing.T) {
	b := NewBus()
	sawCancelled := false
	_ = b.Subscribe(Damage, "blocker", PriorityHigh, func(e *Event) { e.Cancel() })
	_ = b.Subscribe(Damage, "observer", PriorityLow, func(e *Event) { sawCancelled = e.Cancelled() })

	ev := b.Publish(Damage, 5)
	if !ev.Cancelled() {
		t.Fatal("Cancelled() = false, want true")
	}
	if !sawCancelled {
		t.Fatal("later listener did not observe cancellation")
	}
	if ev.Payload.(int) != 5 {
		t.Fatalf("Payload = %v, want 5", ev.Payload)
	}
}

func TestSubscribeSameNameReplaces(t *testing.T) {
	b := NewBus()
	calls := 0
	_ = b.Subscribe(Death, "quit", PriorityNormal, func(*Event) { calls += 1 })
	_ = b.Subscribe(Death, "quit", PriorityNormal, func(*Event) { calls += 10 })

	b.Publish(Death, nil)
	if calls != 10 {
		t.Fatalf("calls = %d, want 10", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	called := false
	_ = b.Subscribe(PlayerJoin, "greeter", PriorityNormal, func(*Event) { called = true })
	b.Unsubscribe(PlayerJoin, "greeter")
	b.Unsubscribe(PlayerJoin, "greeter")

	b.Publish(PlayerJoin, nil)
	if called || b.Has(PlayerJoin, "greeter") {
		t.Fatal("listener still registered after Unsubscribe")
	}
}

func TestSubscribeRejectsUnknownPriority(t *testing.T) {
	b := NewBus()
	if err := b.Subscribe(Damage, "x", Priority(9), func(*Event) {}); err != ErrInvalidPriority {
		t.Fatalf("Subscribe() error = %v, want %v", err, ErrInvalidPriority)
	}
}

func TestListenerMaySubscribeDuringPublish(t *testing.T) {
	b := NewBus()
	_ = b.Subscribe(GameOver, "late-binder", PriorityNormal, func(*Event) {
		_ = b.Subscribe(GameOver, "added", PriorityNormal, func(*Event) {})
	})
	b.Publish(GameOver, nil)
	if !b.Has(GameOver, "added") {
		t.Fatal("subscription made during publish was lost")
	}
}
