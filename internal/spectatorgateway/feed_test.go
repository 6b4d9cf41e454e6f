package spectatorgateway

import (
	"testing"

	"arena-core/internal/match"
	"arena-core/internal/scheduler"
)

type player string

func (p player) Name() string             { return string(p) }
func (p player) SendMessage(string)       {}
func (p player) SendTip(string)           {}
func (p player) SendPopup(string, string) {}

func TestFeedRecordsArenaEvents(t *testing.T) {
	m := match.NewManager(match.Options{Scheduler: scheduler.New(20)})
	feed := NewFeed(50)
	if err := feed.Subscribe(m.Bus()); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	g, err := m.AddGame("duel")
	if err != nil {
		t.Fatalf("AddGame() error = %v", err)
	}
	a, err := g.NewArena(match.Config{
		Timeout:             100,
		CountdownToStart:    100,
		CountdownArenaFull:  100,
		PlayersCountToStart: 2,
		TeamSize:            1,
		Teams: []match.TeamSpec{
			{Name: "red", Color: "red"},
			{Name: "blue", Color: "blue"},
		},
	}, match.Solo{})
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}
	if _, err := m.Join(player("alice"), "duel", match.SessionAlive, nil); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	m.RemoveSession("alice", match.ReasonLeft)

	events := feed.Buffer(a.ID()).ReplayAfter("")
	var names []string
	for _, ev := range events {
		names = append(names, ev.Event)
	}
	want := []string{"status_changed", "player_join", "player_quit"}
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
	join, _ := events[1].Data.(map[string]any)
	if join["player"] != "alice" || join["team"] != "red" {
		t.Fatalf("player_join data = %v", join)
	}
	quit, _ := events[2].Data.(map[string]any)
	if quit["reason"] != match.ReasonLeft {
		t.Fatalf("player_quit data = %v", quit)
	}

	feed.Close()
	if feed.Buffer(a.ID()) != nil {
		t.Fatal("Buffer() after Close returned a buffer")
	}
}
