package match

import (
	"testing"
	"time"

	"arena-core/internal/event"
	"arena-core/internal/maps"
	"arena-core/internal/scheduler"
)

type fakePlayer struct {
	name     string
	messages []string
	tips     []string
	popups   []string
}

func (p *fakePlayer) Name() string                   { return p.name }
func (p *fakePlayer) SendMessage(msg string)         { p.messages = append(p.messages, msg) }
func (p *fakePlayer) SendTip(msg string)             { p.tips = append(p.tips, msg) }
func (p *fakePlayer) SendPopup(msg, subtitle string) { p.popups = append(p.popups, msg+"|"+subtitle) }

func player(name string) *fakePlayer { return &fakePlayer{name: name} }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type harness struct {
	t     *testing.T
	sched *scheduler.Scheduler
	clock *fakeClock
	m     *Manager
}

// newHarness builds a manager whose arenas update on every tick.
func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessPeriod(t, 1)
}

func newHarnessPeriod(t *testing.T, period int64) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		sched: scheduler.New(20),
		clock: &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	h.m = NewManager(Options{
		Scheduler:    h.sched,
		Bus:          event.NewBus(),
		UpdatePeriod: period,
		LinkTTL:      30 * time.Second,
		Now:          h.clock.Now,
	})
	return h
}

func (h *harness) game(name string) *Game {
	h.t.Helper()
	if g := h.m.Game(name); g != nil {
		return g
	}
	g, err := h.m.AddGame(name)
	if err != nil {
		h.t.Fatalf("AddGame(%s) error = %v", name, err)
	}
	return g
}

func (h *harness) arena(cfg Config, p Policy) *Arena {
	h.t.Helper()
	a, err := h.game("test").NewArena(cfg, p)
	if err != nil {
		h.t.Fatalf("NewArena() error = %v", err)
	}
	return a
}

// arenaWithMap builds an arena that is ready to start a match.
func (h *harness) arenaWithMap(cfg Config, p Policy) *Arena {
	h.t.Helper()
	a := h.arena(cfg, p)
	if err := a.SetMap(testMap(h.t, "test", "canyon")); err != nil {
		h.t.Fatalf("SetMap() error = %v", err)
	}
	return a
}

func (h *harness) join(a *Arena, name string, status SessionStatus) *Session {
	h.t.Helper()
	s, err := h.m.AddSession(player(name), a, nil, status)
	if err != nil {
		h.t.Fatalf("AddSession(%s) error = %v", name, err)
	}
	return s
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.sched.Tick()
	}
}

func (h *harness) record(kind event.Kind) *[]*event.Event {
	var got []*event.Event
	if err := h.m.Bus().Subscribe(kind, "test-recorder", event.PriorityLow, func(e *event.Event) {
		got = append(got, e)
	}); err != nil {
		h.t.Fatalf("Subscribe() error = %v", err)
	}
	return &got
}

func testMap(t *testing.T, game, name string) *maps.Map {
	t.Helper()
	m, err := maps.NewMap(maps.Descriptor{File: name + ".zip", Game: game, Spawns: [][3]float64{{0, 64, 0}, {8, 64, 8}}})
	if err != nil {
		t.Fatalf("NewMap() error = %v", err)
	}
	return m
}

// duelConfig is two one-player teams plus spectators.
func duelConfig() Config {
	return Config{
		Timeout:             5,
		CountdownToStart:    3,
		CountdownArenaFull:  1,
		CountdownToReset:    2,
		PlayersCountToStart: 2,
		TeamSize:            1,
		Teams: []TeamSpec{
			{Name: "red", Color: "red"},
			{Name: "blue", Color: "blue"},
			{Name: "spectators", Color: "gray", External: true},
		},
	}
}

func squadConfig(size int) Config {
	cfg := duelConfig()
	cfg.TeamSize = size
	return cfg
}
