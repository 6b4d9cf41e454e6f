package session

import (
	"context"
	"errors"
	"testing"

	"arena-core/internal/maps"
	"arena-core/internal/match"
	"arena-core/internal/rules"
	"arena-core/internal/scheduler"
)

type inline struct{}

func (inline) Do(_ context.Context, fn func()) error {
	fn()
	return nil
}

type fixture struct {
	t     *testing.T
	sched *scheduler.Scheduler
	m     *match.Manager
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, sched: scheduler.New(20)}
	f.m = match.NewManager(match.Options{Scheduler: f.sched, UpdatePeriod: 1})
	f.svc = NewService(inline{}, f.m)
	return f
}

func (f *fixture) arena(game string, teamSize int, policy match.Policy) *match.Arena {
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
		TeamSize:            teamSize,
		Teams: []match.TeamSpec{
			{Name: "red", Color: "red"},
			{Name: "blue", Color: "blue"},
			{Name: "spectators", Color: "gray", External: true},
		},
	}, policy)
	if err != nil {
		f.t.Fatalf("NewArena() error = %v", err)
	}
	if err := a.SetMap(f.newMap(game, "canyon")); err != nil {
		f.t.Fatalf("SetMap() error = %v", err)
	}
	return a
}

func (f *fixture) newMap(game, name string) *maps.Map {
	f.t.Helper()
	m, err := maps.NewMap(maps.Descriptor{File: name + ".zip", Game: game})
	if err != nil {
		f.t.Fatalf("NewMap() error = %v", err)
	}
	return m
}

func (f *fixture) join(in JoinInput) *SessionItem {
	f.t.Helper()
	item, err := f.svc.Join(context.Background(), in)
	if err != nil {
		f.t.Fatalf("Join(%s) error = %v", in.Player, err)
	}
	return item
}

func TestJoinAndLeave(t *testing.T) {
	f := newFixture(t)
	a := f.arena("duel", 1, match.Solo{})
	ctx := context.Background()

	alice := f.join(JoinInput{Player: "alice", Game: "duel"})
	if alice.ArenaID != a.ID() || alice.Game != "duel" || alice.Team != "red" || alice.Status != "alive" {
		t.Fatalf("Join() = %+v", alice)
	}
	watcher := f.join(JoinInput{Player: "watcher", Game: "duel", Spectate: true})
	if watcher.Team != "spectators" || watcher.Status != "spectating" {
		t.Fatalf("spectator = %+v, want spectators/spectating", watcher)
	}

	if err := f.svc.Leave(ctx, "alice"); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if f.m.Session("alice") != nil {
		t.Fatal("alice kept a session after Leave")
	}
	if err := f.svc.Leave(ctx, "alice"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Leave(again) error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestJoinErrors(t *testing.T) {
	f := newFixture(t)
	f.arena("duel", 1, match.Solo{})
	ctx := context.Background()

	if _, err := f.svc.Join(ctx, JoinInput{Player: " ", Game: "duel"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Join(blank player) error = %v, want %v", err, ErrInvalidRequest)
	}
	if _, err := f.svc.Join(ctx, JoinInput{Player: "alice", Game: "nope"}); !errors.Is(err, match.ErrGameNotFound) {
		t.Fatalf("Join(unknown game) error = %v, want %v", err, match.ErrGameNotFound)
	}
	f.join(JoinInput{Player: "alice", Game: "duel"})
	if _, err := f.svc.Join(ctx, JoinInput{Player: "alice", Game: "duel"}); !errors.Is(err, match.ErrAlreadyInSession) {
		t.Fatalf("Join(twice) error = %v, want %v", err, match.ErrAlreadyInSession)
	}
	if _, err := f.svc.Join(ctx, JoinInput{Player: "bob", Game: "duel", Team: "blue"}); !errors.Is(err, ErrTeamChoiceNotAllowed) {
		t.Fatalf("Join(team on solo game) error = %v, want %v", err, ErrTeamChoiceNotAllowed)
	}
}

func TestJoinHonoursTeamChoice(t *testing.T) {
	f := newFixture(t)
	f.arena("squad", 2, match.NewChoice())

	got := f.join(JoinInput{Player: "alice", Game: "squad", Team: "blue"})
	if got.Team != "blue" {
		t.Fatalf("alice seated on %s, want blue", got.Team)
	}
}

func TestPartyThatDoesNotFitIsRolledBack(t *testing.T) {
	f := newFixture(t)
	f.arena("squad", 2, match.Balanced{})

	_, err := f.svc.Join(context.Background(), JoinInput{
		Player:   "alice",
		Game:     "squad",
		Party:    []string{"bob", "carol"},
		SameTeam: true,
	})
	if !errors.Is(err, match.ErrPartyDoesNotFit) {
		t.Fatalf("Join(party) error = %v, want %v", err, match.ErrPartyDoesNotFit)
	}
	if f.m.Session("alice") != nil {
		t.Fatal("owner kept a session after the party was rejected")
	}

	got := f.join(JoinInput{Player: "alice", Game: "squad", Party: []string{"bob"}, SameTeam: true})
	if got.PartyOwner != "alice" {
		t.Fatalf("PartyOwner = %q, want alice", got.PartyOwner)
	}
	bob := f.join(JoinInput{Player: "bob", Game: "squad"})
	if bob.Team != got.Team {
		t.Fatalf("bob seated on %s, want the owner's team %s", bob.Team, got.Team)
	}
}

func TestRejectedJoinLeavesNoParty(t *testing.T) {
	f := newFixture(t)
	f.arena("squad", 2, match.Balanced{})
	f.join(JoinInput{Player: "alice", Game: "squad"})
	f.join(JoinInput{Player: "bob", Game: "squad"})

	_, err := f.svc.Join(context.Background(), JoinInput{Player: "alice", Game: "squad", Party: []string{"bob"}, SameTeam: true})
	if !errors.Is(err, match.ErrAlreadyInSession) {
		t.Fatalf("Join(again) error = %v, want %v", err, match.ErrAlreadyInSession)
	}
	alice, bob := f.m.Session("alice"), f.m.Session("bob")
	if alice.Party() != nil || alice.OwnsParty() {
		t.Fatalf("alice party = %v after a rejected join, want none", alice.Party())
	}
	if bob.Party() != nil {
		t.Fatalf("bob party = %v after a rejected join, want none", bob.Party())
	}
}

func TestFailedJoinClearsTeamChoice(t *testing.T) {
	f := newFixture(t)
	choice := match.NewChoice()
	a := f.arena("squad", 1, choice)
	f.join(JoinInput{Player: "x", Game: "squad", Team: "red"})
	f.join(JoinInput{Player: "y", Game: "squad", Team: "blue"})
	if a.PlayerSlots() != 0 {
		t.Fatalf("PlayerSlots() = %d, want 0", a.PlayerSlots())
	}

	if _, err := f.svc.Join(context.Background(), JoinInput{Player: "alice", Game: "squad", Team: "blue"}); !errors.Is(err, match.ErrNoFreeArena) {
		t.Fatalf("Join(full) error = %v, want %v", err, match.ErrNoFreeArena)
	}
	if team, ok := choice.Preference("alice"); ok {
		t.Fatalf("alice kept preference %q after a failed join", team)
	}
	if _, err := f.svc.Join(context.Background(), JoinInput{Player: "x", Game: "squad", Team: "blue"}); !errors.Is(err, match.ErrAlreadyInSession) {
		t.Fatalf("Join(x again) error = %v, want %v", err, match.ErrAlreadyInSession)
	}
	if team, _ := choice.Preference("x"); team != "red" {
		t.Fatalf("x preference = %q after a rejected join, want red", team)
	}
}

func TestGetDrainsMessages(t *testing.T) {
	f := newFixture(t)
	a := f.arena("duel", 1, match.Solo{})
	ctx := context.Background()
	f.join(JoinInput{Player: "alice", Game: "duel"})

	a.Message("welcome", false)
	got, err := f.svc.Get(ctx, "alice", true)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	last := got.Messages[len(got.Messages)-1]
	if last.Kind != "message" || last.Text != "welcome" {
		t.Fatalf("last message = %+v, want welcome", last)
	}
	again, err := f.svc.Get(ctx, "alice", true)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(again.Messages) != 0 {
		t.Fatalf("messages after drain = %v, want none", again.Messages)
	}
	if _, err := f.svc.Get(ctx, "ghost", false); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Get(ghost) error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestPlayerInboxIsBounded(t *testing.T) {
	p := NewPlayer("alice")
	for i := 0; i < inboxSize+5; i++ {
		p.SendTip("tip")
	}
	p.SendPopup("last", "sub")
	if p.Pending() != inboxSize {
		t.Fatalf("Pending() = %d, want %d", p.Pending(), inboxSize)
	}
	msgs := p.Drain()
	if msgs[len(msgs)-1].Subtitle != "sub" {
		t.Fatalf("newest message = %+v, want the popup", msgs[len(msgs)-1])
	}
}

func TestMoveBetweenArenas(t *testing.T) {
	f := newFixture(t)
	f.arena("duel", 1, match.Solo{})
	second := f.arena("duel", 1, match.Solo{})
	ctx := context.Background()
	f.join(JoinInput{Player: "alice", Game: "duel"})

	got, err := f.svc.Move(ctx, MoveInput{Player: "alice", ArenaID: second.ID()})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if got.ArenaID != second.ID() {
		t.Fatalf("ArenaID = %s, want %s", got.ArenaID, second.ID())
	}
	if _, err := f.svc.Move(ctx, MoveInput{Player: "alice", ArenaID: "missing"}); !errors.Is(err, match.ErrArenaNotFound) {
		t.Fatalf("Move(unknown arena) error = %v, want %v", err, match.ErrArenaNotFound)
	}
	if _, err := f.svc.Move(ctx, MoveInput{Player: "ghost", ArenaID: second.ID()}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Move(ghost) error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestAssignMap(t *testing.T) {
	f := newFixture(t)
	a := f.arena("duel", 1, match.Solo{})
	f.m.Maps().Add(f.newMap("duel", "ruins"))
	ctx := context.Background()

	if err := f.svc.AssignMap(ctx, a.ID(), "ruins"); err != nil {
		t.Fatalf("AssignMap() error = %v", err)
	}
	if a.Map() == nil || a.Map().Name() != "ruins" {
		t.Fatalf("arena map = %v, want ruins", a.Map())
	}
	if err := f.svc.AssignMap(ctx, a.ID(), "atlantis"); !errors.Is(err, match.ErrMapNotFound) {
		t.Fatalf("AssignMap(unknown map) error = %v, want %v", err, match.ErrMapNotFound)
	}
	if err := f.svc.AssignMap(ctx, "missing", "ruins"); !errors.Is(err, match.ErrArenaNotFound) {
		t.Fatalf("AssignMap(unknown arena) error = %v, want %v", err, match.ErrArenaNotFound)
	}
}

func TestFinishAndDamage(t *testing.T) {
	f := newFixture(t)
	a := f.arena("duel", 1, match.Solo{})
	ctx := context.Background()
	if err := rules.Register(f.m, "duel", rules.NoTeamDamage{}, rules.NoExternalDamage{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	f.join(JoinInput{Player: "alice", Game: "duel"})

	if err := f.svc.Finish(ctx, a.ID()); !errors.Is(err, ErrArenaNotRunning) {
		t.Fatalf("Finish(waiting) error = %v, want %v", err, ErrArenaNotRunning)
	}
	f.join(JoinInput{Player: "bob", Game: "duel"})
	for i := 0; i < 5 && !a.Is(match.StatusRunning); i++ {
		f.sched.Tick()
	}
	if !a.Is(match.StatusRunning) {
		t.Fatalf("arena status = %v, want running", a.Status())
	}

	hit, err := f.svc.Damage(ctx, DamageInput{Victim: "alice", Attacker: "bob", Amount: 3, Health: 20})
	if err != nil {
		t.Fatalf("Damage() error = %v", err)
	}
	if hit.Cancelled || !hit.InSession {
		t.Fatalf("Damage(opponent) = %+v, want allowed", hit)
	}
	outside, err := f.svc.Damage(ctx, DamageInput{Victim: "alice", Attacker: "stranger", Amount: 3, Health: 20})
	if err != nil {
		t.Fatalf("Damage() error = %v", err)
	}
	if !outside.Cancelled {
		t.Fatal("damage from outside the arena was allowed")
	}
	if _, err := f.svc.Damage(ctx, DamageInput{Victim: "ghost", Amount: 1, Health: 20}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Damage(ghost) error = %v, want %v", err, ErrSessionNotFound)
	}

	if err := f.svc.Finish(ctx, a.ID()); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	f.sched.Tick()
	if a.Is(match.StatusRunning) {
		t.Fatal("arena still running after Finish")
	}
}
