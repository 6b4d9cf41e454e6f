package rules

import (
	"errors"
	"testing"

	"arena-core/internal/event"
	"arena-core/internal/maps"
	"arena-core/internal/match"
	"arena-core/internal/scheduler"
)

type testPlayer struct {
	name  string
	perms map[string]bool
}

func (p *testPlayer) Name() string                   { return p.name }
func (p *testPlayer) SendMessage(string)             {}
func (p *testPlayer) SendTip(string)                 {}
func (p *testPlayer) SendPopup(string, string)       {}
func (p *testPlayer) HasPermission(perm string) bool { return p.perms[perm] }

type fixture struct {
	t     *testing.T
	sched *scheduler.Scheduler
	m     *match.Manager
	arena *match.Arena
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, sched: scheduler.New(20)}
	f.m = match.NewManager(match.Options{Scheduler: f.sched, UpdatePeriod: 1})
	f.arena = f.newArena("duel")
	return f
}

func (f *fixture) newArena(game string) *match.Arena {
	f.t.Helper()
	g := f.m.Game(game)
	if g == nil {
		var err error
		if g, err = f.m.AddGame(game); err != nil {
			f.t.Fatalf("AddGame() error = %v", err)
		}
	}
	a, err := g.NewArena(match.Config{
		Timeout:             100,
		PlayersCountToStart: 2,
		TeamSize:            2,
		Teams: []match.TeamSpec{
			{Name: "red", Color: "red"},
			{Name: "blue", Color: "blue"},
			{Name: "spectators", Color: "gray", External: true},
		},
	}, match.Balanced{})
	if err != nil {
		f.t.Fatalf("NewArena() error = %v", err)
	}
	m, err := maps.NewMap(maps.Descriptor{File: "canyon.zip", Game: game})
	if err != nil {
		f.t.Fatalf("NewMap() error = %v", err)
	}
	if err := a.SetMap(m); err != nil {
		f.t.Fatalf("SetMap() error = %v", err)
	}
	return a
}

func (f *fixture) join(a *match.Arena, name string, status match.SessionStatus) *match.Session {
	f.t.Helper()
	s, err := f.m.AddSession(&testPlayer{name: name}, a, nil, status)
	if err != nil {
		f.t.Fatalf("AddSession(%s) error = %v", name, err)
	}
	return s
}

// start seats two opponents, then any extra players, and runs the arena
// into a match.
func (f *fixture) start(extra ...string) (red, blue *match.Session) {
	f.t.Helper()
	red = f.join(f.arena, "r1", match.SessionAlive)
	blue = f.join(f.arena, "b1", match.SessionAlive)
	for _, name := range extra {
		f.join(f.arena, name, match.SessionAlive)
	}
	for i := 0; i < 5 && !f.arena.Is(match.StatusRunning); i++ {
		f.sched.Tick()
	}
	if !f.arena.Is(match.StatusRunning) {
		f.t.Fatalf("arena status = %v, want running", f.arena.Status())
	}
	return red, blue
}

func (f *fixture) register(names ...string) {
	f.t.Helper()
	rs, err := Parse(names)
	if err != nil {
		f.t.Fatalf("Parse() error = %v", err)
	}
	if err := Register(f.m, "duel", rs...); err != nil {
		f.t.Fatalf("Register() error = %v", err)
	}
}

func TestParseUnknownRule(t *testing.T) {
	if _, err := Parse([]string{"no_damage", "fly"}); !errors.Is(err, ErrUnknownRule) {
		t.Fatalf("Parse() error = %v, want %v", err, ErrUnknownRule)
	}
	if len(Names()) != 6 {
		t.Fatalf("Names() = %v, want 6 rules", Names())
	}
}

func TestNoDamage(t *testing.T) {
	f := newFixture(t)
	f.register("no_damage")
	f.start()

	if !f.m.DispatchDamage("r1", nil, 1, 20) {
		t.Fatal("damage to a seated player was not cancelled")
	}
}

func TestRulesAreScopedToTheirGame(t *testing.T) {
	f := newFixture(t)
	f.register("no_damage")
	other := f.newArena("other")
	f.join(other, "o1", match.SessionAlive)

	if f.m.DispatchDamage("o1", nil, 1, 20) {
		t.Fatal("rule for duel cancelled damage in another game")
	}
	Unregister(f.m, "duel", NoDamage{})
	if Registered(f.m, "duel", NoDamage{}) {
		t.Fatal("rule still registered after Unregister")
	}
}

func TestNoTeamDamage(t *testing.T) {
	f := newFixture(t)
	f.register("no_team_damage")
	red, blue := f.start("r2")
	mate := f.m.Session("r2")
	if mate.Team() != red.Team() {
		t.Fatalf("r2 seated on %s, want %s", mate.Team().Name(), red.Team().Name())
	}

	if !f.m.DispatchDamage("r1", mate.Player(), 1, 20) {
		t.Fatal("friendly fire was not cancelled")
	}
	if f.m.DispatchDamage("r1", blue.Player(), 1, 20) {
		t.Fatal("damage from an opponent was cancelled")
	}
	if f.m.DispatchDamage("r1", nil, 1, 20) {
		t.Fatal("environmental damage was cancelled")
	}
}

func TestNoExternalDamage(t *testing.T) {
	f := newFixture(t)
	f.register("no_external_damage")
	_, blue := f.start()

	if f.m.DispatchDamage("r1", blue.Player(), 1, 20) {
		t.Fatal("damage between opponents in one arena was cancelled")
	}
	if !f.m.DispatchDamage("r1", &testPlayer{name: "outsider"}, 1, 20) {
		t.Fatal("damage from a player without a session was allowed")
	}
	admin := &testPlayer{name: "admin", perms: map[string]bool{PermExternalDamage: true}}
	if f.m.DispatchDamage("r1", admin, 1, 20) {
		t.Fatal("damage from a permitted outsider was cancelled")
	}

	watcher := f.join(f.arena, "w1", match.SessionSpectating)
	if !f.m.DispatchDamage("r1", watcher.Player(), 1, 20) {
		t.Fatal("damage from a spectator was allowed")
	}
	elsewhere := f.newArena("duel")
	stranger := f.join(elsewhere, "x1", match.SessionAlive)
	if !f.m.DispatchDamage("r1", stranger.Player(), 1, 20) {
		t.Fatal("damage from another arena was allowed")
	}
}

func TestDamageOnlyWhenRunning(t *testing.T) {
	f := newFixture(t)
	f.register("damage_only_when_running")
	f.join(f.arena, "early", match.SessionAlive)

	if !f.m.DispatchDamage("early", nil, 1, 20) {
		t.Fatal("damage before the match started was allowed")
	}
	f.start()
	if f.m.DispatchDamage("r1", nil, 1, 20) {
		t.Fatal("damage during the match was cancelled")
	}
}

func TestCleanDeathAndQuitWhenDie(t *testing.T) {
	f := newFixture(t)
	f.register("clean_death", "quit_when_die")
	deaths := 0
	if err := f.m.Bus().Subscribe(event.Death, "count", event.PriorityLow, func(*event.Event) { deaths++ }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	f.start()

	if f.m.DispatchDamage("r1", nil, 5, 20) {
		t.Fatal("non-lethal damage was cancelled")
	}
	if !f.m.DispatchDamage("r1", nil, 20, 20) {
		t.Fatal("lethal damage was not cancelled")
	}
	if deaths != 1 {
		t.Fatalf("death events = %d, want 1", deaths)
	}
	if f.m.Session("r1") != nil {
		t.Fatal("dead player kept their session")
	}
}

func TestCleanDeathSkipsBlockedDamage(t *testing.T) {
	f := newFixture(t)
	f.register("clean_death", "no_team_damage")
	red, _ := f.start("r2")
	mate := f.m.Session("r2")
	if mate.Team() != red.Team() {
		t.Fatalf("r2 seated on %s, want %s", mate.Team().Name(), red.Team().Name())
	}
	deaths := 0
	if err := f.m.Bus().Subscribe(event.Death, "count", event.PriorityLow, func(*event.Event) { deaths++ }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	f.m.DispatchDamage("r1", mate.Player(), 50, 20)
	if deaths != 0 {
		t.Fatalf("death events = %d after blocked friendly fire, want 0", deaths)
	}
}

func TestLethalDamageOutsideMatchIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	f.register("clean_death", "quit_when_die")
	f.join(f.arena, "early", match.SessionAlive)

	if !f.m.DispatchDamage("early", nil, 99, 20) {
		t.Fatal("lethal damage in the lobby was not cancelled")
	}
	if f.m.Session("early") == nil {
		t.Fatal("lobby player lost their session")
	}
}
