package spectatorpush

import "testing"

func TestRouterMatchesScopeAndAllowlist(t *testing.T) {
	targets := []PushTarget{
		{Platform: "discord", Endpoint: "a", ScopeType: "all", Enabled: true},
		{Platform: "discord", Endpoint: "b", ScopeType: "game", ScopeValue: "duels", Enabled: true},
		{Platform: "discord", Endpoint: "c", ScopeType: "game", ScopeValue: "squads", Enabled: true},
		{Platform: "discord", Endpoint: "d", ScopeType: "arena", ScopeValue: "a1", Enabled: true, EventAllowlist: []string{"game_over"}},
		{Platform: "discord", Endpoint: "e", ScopeType: "all", Enabled: false},
	}
	endpoints := func(n Notice) []string {
		var out []string
		for _, tg := range (Router{}).MatchTargets(targets, n) {
			out = append(out, tg.Endpoint)
		}
		return out
	}

	got := endpoints(Notice{EventType: "game_over", Game: "duels", ArenaID: "a1"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "d" {
		t.Fatalf("game_over targets = %v, want [a b d]", got)
	}
	got = endpoints(Notice{EventType: "match_started", Game: "duels", ArenaID: "a1"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("match_started targets = %v, want [a b]", got)
	}
	if got := (Router{}).MatchTargets(nil, Notice{EventType: "game_over"}); got != nil {
		t.Fatalf("no targets = %v, want nil", got)
	}
}
