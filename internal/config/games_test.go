package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arena-core/internal/match"
)

const validGames = `
games:
  - name: duels
    policy: solo
    arenas: 2
    map_dir: maps
    maps: [canyon]
    arena:
      Timeout: 300
      CountdownToStart: 30
      CountdownArenaFull: 10
      CountdownToReset: 5
      PlayersCountToStart: 2
      TeamSize: 1
      AutoMapReset: true
      Teams:
        zulu: ["gold", false]
        alpha: ["red", false]
        spectators: ["gray", true]
`

func TestParseGamesPreservesTeamOrder(t *testing.T) {
	games, err := ParseGames([]byte(validGames))
	if err != nil {
		t.Fatalf("ParseGames() error = %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("len(games) = %d, want 1", len(games))
	}
	g := games[0]
	if g.Name != "duels" || g.Policy != "solo" || g.Arenas != 2 {
		t.Fatalf("unexpected game: %+v", g)
	}
	cfg := g.Arena
	if cfg.Timeout != 300 || cfg.CountdownToStart != 30 || cfg.CountdownArenaFull != 10 || cfg.CountdownToReset != 5 {
		t.Fatalf("unexpected countdowns: %+v", cfg)
	}
	if !cfg.AutoMapReset {
		t.Fatal("AutoMapReset = false, want true")
	}
	want := []match.TeamSpec{
		{Name: "zulu", Color: "gold"},
		{Name: "alpha", Color: "red"},
		{Name: "spectators", Color: "gray", External: true},
	}
	if len(cfg.Teams) != len(want) {
		t.Fatalf("len(Teams) = %d, want %d", len(cfg.Teams), len(want))
	}
	for i := range want {
		if cfg.Teams[i] != want[i] {
			t.Fatalf("Teams[%d] = %+v, want %+v", i, cfg.Teams[i], want[i])
		}
	}
}

func TestParseGamesRejectsMissingKey(t *testing.T) {
	data := strings.Replace(validGames, "      CountdownToReset: 5\n", "", 1)
	_, err := ParseGames([]byte(data))
	if !errors.Is(err, ErrInvalidGames) {
		t.Fatalf("ParseGames() error = %v, want %v", err, ErrInvalidGames)
	}
	if !strings.Contains(err.Error(), "CountdownToReset") {
		t.Fatalf("error %q does not name the missing key", err)
	}
}

func TestParseGamesRejectsWrongTypes(t *testing.T) {
	cases := map[string]string{
		"string timeout": strings.Replace(validGames, "Timeout: 300", `Timeout: "300"`, 1),
		"float size":     strings.Replace(validGames, "TeamSize: 1", "TeamSize: 1.5", 1),
		"numeric color":  strings.Replace(validGames, `["gold", false]`, `[7, false]`, 1),
		"string flag":    strings.Replace(validGames, `["red", false]`, `["red", "no"]`, 1),
		"short team":     strings.Replace(validGames, `["gray", true]`, `["gray"]`, 1),
		"unknown key":    strings.Replace(validGames, "      TeamSize: 1\n", "      TeamSize: 1\n      Gravity: 9\n", 1),
		"bad policy":     strings.Replace(validGames, "policy: solo", "policy: chaos", 1),
	}
	for name, data := range cases {
		if _, err := ParseGames([]byte(data)); err == nil {
			t.Fatalf("%s: ParseGames() expected error, got nil", name)
		}
	}
}

func TestParseGamesRejectsInvalidArenaConfig(t *testing.T) {
	data := strings.Replace(validGames, "TeamSize: 1", "TeamSize: 0", 1)
	_, err := ParseGames([]byte(data))
	if !errors.Is(err, match.ErrInvalidTeamSize) {
		t.Fatalf("ParseGames() error = %v, want %v", err, match.ErrInvalidTeamSize)
	}
}

func TestParseGamesRejectsDuplicateGame(t *testing.T) {
	second := strings.Replace(validGames, "games:\n", "", 1)
	if _, err := ParseGames([]byte(validGames + second)); err == nil {
		t.Fatal("ParseGames() expected duplicate game error, got nil")
	}
}

func TestLoadGamesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.yaml")
	if err := os.WriteFile(path, []byte(validGames), 0o644); err != nil {
		t.Fatalf("write games file: %v", err)
	}
	games, err := LoadGames(path)
	if err != nil {
		t.Fatalf("LoadGames() error = %v", err)
	}
	if games[0].MapDir != "maps" || len(games[0].Maps) != 1 {
		t.Fatalf("unexpected game: %+v", games[0])
	}
}

func TestLoadGamesMissingFile(t *testing.T) {
	if _, err := LoadGames(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadGames() expected error, got nil")
	}
}
