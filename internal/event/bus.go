// Package event is a synchronous publish/subscribe bus. Listeners for a kind
// run by priority (High, Normal, Low) and then by subscription order; any of
// them may cancel the event, and later listeners still see it.
package event

import (
	"errors"
	"sync"
)

var ErrInvalidPriority = errors.New("invalid_listener_priority")

type Kind int

const (
	PlayerJoin Kind = iota + 1
	PlayerQuit
	GameOver
	StatusChanged
	MapChanged
	Damage
	Death
)

func (k Kind) String() string {
	switch k {
	case PlayerJoin:
		return "player_join"
	case PlayerQuit:
		return "player_quit"
	case GameOver:
		return "game_over"
	case StatusChanged:
		return "status_changed"
	case MapChanged:
		return "map_changed"
	case Damage:
		return "damage"
	case Death:
		return "death"
	default:
		return "unknown"
	}
}

type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

type Event struct {
	Kind      Kind
	Payload   any
	cancelled bool
}

func (e *Event) Cancel()         { e.cancelled = true }
func (e *Event) Cancelled() bool { return e.cancelled }

type Handler func(*Event)

type listener struct {
	name     string
	priority Priority
	fn       Handler
}

type Bus struct {
	mu        sync.RWMutex
	listeners map[Kind][]listener
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[Kind][]listener)}
}

// Subscribe registers fn under name. Subscribing an existing name for the same
// kind replaces the old listener.
func (b *Bus) Subscribe(kind Kind, name string, p Priority, fn Handler) error {
	if p < PriorityHigh || p > PriorityLow {
		return ErrInvalidPriority
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := removeNamed(b.listeners[kind], name)
	l := listener{name: name, priority: p, fn: fn}
	at := len(ls)
	for i, cur := range ls {
		if cur.priority > p {
			at = i
			break
		}
	}
	ls = append(ls, listener{})
	copy(ls[at+1:], ls[at:])
	ls[at] = l
	b.listeners[kind] = ls
	return nil
}

func (b *Bus) Unsubscribe(kind Kind, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[kind] = removeNamed(b.listeners[kind], name)
}

func (b *Bus) Has(kind Kind, name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range b.listeners[kind] {
		if l.name == name {
			return true
		}
	}
	return false
}

// Publish delivers payload to every listener of kind and returns the event so
// the caller can check whether it was cancelled.
func (b *Bus) Publish(kind Kind, payload any) *Event {
	b.mu.RLock()
	ls := append([]listener(nil), b.listeners[kind]...)
	b.mu.RUnlock()

	ev := &Event{Kind: kind, Payload: payload}
	for _, l := range ls {
		l.fn(ev)
	}
	return ev
}

func removeNamed(ls []listener, name string) []listener {
	for i, l := range ls {
		if l.name == name {
			out := make([]listener, 0, len(ls)-1)
			out = append(out, ls[:i]...)
			return append(out, ls[i+1:]...)
		}
	}
	return ls
}
