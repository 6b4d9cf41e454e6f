package results

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"arena-core/internal/event"
	"arena-core/internal/maps"
	"arena-core/internal/match"
	"arena-core/internal/scheduler"
	"arena-core/internal/store"
)

type fakeSink struct {
	mu    sync.Mutex
	fails int
	calls int
	got   []store.MatchResult
}

func (s *fakeSink) RecordMatch(_ context.Context, r store.MatchResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fails > 0 {
		s.fails--
		return "", errors.New("db down")
	}
	s.got = append(s.got, r)
	return "id", nil
}

func (s *fakeSink) results() []store.MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.MatchResult(nil), s.got...)
}

type namedPlayer string

func (p namedPlayer) Name() string             { return string(p) }
func (p namedPlayer) SendMessage(string)       {}
func (p namedPlayer) SendTip(string)           {}
func (p namedPlayer) SendPopup(string, string) {}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newArena(t *testing.T) (*match.Manager, *match.Arena) {
	t.Helper()
	m := match.NewManager(match.Options{Scheduler: scheduler.New(20), UpdatePeriod: 1})
	g, err := m.AddGame("duel")
	if err != nil {
		t.Fatalf("AddGame() error = %v", err)
	}
	a, err := g.NewArena(match.Config{
		Timeout:             10,
		PlayersCountToStart: 2,
		TeamSize:            2,
		Teams: []match.TeamSpec{
			{Name: "red", Color: "red"},
			{Name: "blue", Color: "blue"},
		},
	}, match.Balanced{})
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}
	mp, err := maps.NewMap(maps.Descriptor{File: "canyon.zip", Game: "duel"})
	if err != nil {
		t.Fatalf("NewMap() error = %v", err)
	}
	if err := a.SetMap(mp); err != nil {
		t.Fatalf("SetMap() error = %v", err)
	}
	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := m.AddSession(namedPlayer(name), a, nil, match.SessionAlive); err != nil {
			t.Fatalf("AddSession(%s) error = %v", name, err)
		}
	}
	return m, a
}

func TestSnapshot(t *testing.T) {
	_, a := newArena(t)
	r := Snapshot(match.GameOver{Arena: a, Winner: a.Team("red")})

	if r.Game != "duel" || r.ArenaID != a.ID() || r.MapName != "canyon" || r.Players != 3 {
		t.Fatalf("snapshot = %+v", r)
	}
	if r.WinnerTeam != "red" || len(r.Winners) != 2 || r.Winners[0] != "alice" || r.Winners[1] != "carol" {
		t.Fatalf("winner = %s %v, want red [alice carol]", r.WinnerTeam, r.Winners)
	}
	if r.EndedAt.IsZero() {
		t.Fatal("ended_at not set")
	}

	draw := Snapshot(match.GameOver{Arena: a})
	if draw.WinnerTeam != "" || len(draw.Winners) != 0 {
		t.Fatalf("draw snapshot = %+v", draw)
	}
}

func TestGameOverIsWritten(t *testing.T) {
	m, a := newArena(t)
	sink := &fakeSink{}
	w := NewWriter(sink, Config{QueueSize: 4})
	if err := w.Subscribe(m.Bus()); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	m.Bus().Publish(event.GameOver, match.GameOver{Arena: a, Winner: a.Team("blue")})
	waitFor(t, func() bool { return len(sink.results()) == 1 })
	if got := sink.results()[0]; got.WinnerTeam != "blue" || got.Winners[0] != "bob" {
		t.Fatalf("stored = %+v", got)
	}
	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestFailedWriteIsRetried(t *testing.T) {
	sink := &fakeSink{fails: 2}
	w := NewWriter(sink, Config{QueueSize: 4, RetryMax: 3, RetryBase: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Enqueue(store.MatchResult{Game: "duel", ArenaID: "a1"})
	waitFor(t, func() bool { return len(sink.results()) == 1 })
	sink.mu.Lock()
	calls := sink.calls
	sink.mu.Unlock()
	if calls != 3 {
		t.Fatalf("sink calls = %d, want 3", calls)
	}
}

func TestFullQueueDrops(t *testing.T) {
	sink := &fakeSink{}
	w := NewWriter(sink, Config{QueueSize: 1})

	if !w.Enqueue(store.MatchResult{ArenaID: "a1"}) {
		t.Fatal("first Enqueue() = false, want true")
	}
	if w.Enqueue(store.MatchResult{ArenaID: "a2"}) {
		t.Fatal("Enqueue() on a full queue = true, want false")
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	sink := &fakeSink{}
	w := NewWriter(sink, Config{QueueSize: 8})
	for i := 0; i < 3; i++ {
		w.Enqueue(store.MatchResult{ArenaID: "a"})
	}
	w.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := len(sink.results()); n != 3 {
		t.Fatalf("stored = %d, want 3", n)
	}
	if w.Enqueue(store.MatchResult{ArenaID: "late"}) {
		t.Fatal("Enqueue() after Close() = true, want false")
	}
}
