// Package spectatorgateway streams arena events to spectators over SSE.
package spectatorgateway

import (
	"sync"

	"arena-core/internal/event"
	"arena-core/internal/match"
)

const listenerName = "spectator_feed"

// Feed turns bus events into per-arena buffers. Its listeners run on the tick
// goroutine and never block it.
type Feed struct {
	mu      sync.Mutex
	max     int
	buffers map[string]*Buffer
	closed  bool
}

func NewFeed(max int) *Feed {
	return &Feed{max: max, buffers: make(map[string]*Buffer)}
}

func (f *Feed) Subscribe(bus *event.Bus) error {
	subs := []struct {
		kind event.Kind
		fn   event.Handler
	}{
		{event.PlayerJoin, f.onPlayerJoin},
		{event.PlayerQuit, f.onPlayerQuit},
		{event.StatusChanged, f.onStatusChanged},
		{event.MapChanged, f.onMapChanged},
		{event.GameOver, f.onGameOver},
	}
	for _, s := range subs {
		if err := bus.Subscribe(s.kind, listenerName, event.PriorityLow, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// Buffer returns the arena's buffer, creating it on first use. It is nil once
// the feed is closed.
func (f *Feed) Buffer(arenaID string) *Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	b := f.buffers[arenaID]
	if b == nil {
		b = NewBuffer(arenaID, f.max)
		f.buffers[arenaID] = b
	}
	return b
}

// Close ends every open stream.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for id, b := range f.buffers {
		b.Close()
		delete(f.buffers, id)
	}
}

func (f *Feed) append(a *match.Arena, name string, data any) {
	if a == nil {
		return
	}
	if b := f.Buffer(a.ID()); b != nil {
		b.Append(name, data)
		metricFeedEventsTotal.Add(1)
	}
}

func (f *Feed) onPlayerJoin(e *event.Event) {
	ev, ok := e.Payload.(match.PlayerJoined)
	if !ok || ev.Session == nil {
		return
	}
	data := map[string]any{"player": ev.Session.Name(), "status": ev.Session.Status().String()}
	if t := ev.Session.Team(); t != nil {
		data["team"] = t.Name()
	}
	f.append(ev.Arena, "player_join", data)
}

func (f *Feed) onPlayerQuit(e *event.Event) {
	ev, ok := e.Payload.(match.PlayerQuit)
	if !ok || ev.Session == nil {
		return
	}
	data := map[string]any{"player": ev.Session.Name(), "reason": ev.Reason}
	if ev.Team != nil {
		data["team"] = ev.Team.Name()
	}
	f.append(ev.Arena, "player_quit", data)
}

func (f *Feed) onStatusChanged(e *event.Event) {
	ev, ok := e.Payload.(match.StatusChanged)
	if !ok || ev.Arena == nil {
		return
	}
	f.append(ev.Arena, "status_changed", map[string]any{
		"from":      ev.From.String(),
		"to":        ev.To.String(),
		"countdown": ev.Arena.Countdown(),
	})
}

func (f *Feed) onMapChanged(e *event.Event) {
	ev, ok := e.Payload.(match.MapChanged)
	if !ok || ev.Map == nil {
		return
	}
	f.append(ev.Arena, "map_changed", map[string]any{"map": ev.Map.Name()})
}

func (f *Feed) onGameOver(e *event.Event) {
	ev, ok := e.Payload.(match.GameOver)
	if !ok {
		return
	}
	data := map[string]any{"winner_team": "", "winners": []string{}}
	if ev.Winner != nil {
		data["winner_team"] = ev.Winner.Name()
		data["winners"] = ev.Winner.MemberNames()
	}
	f.append(ev.Arena, "game_over", data)
}
