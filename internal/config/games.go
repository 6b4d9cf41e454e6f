package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"arena-core/internal/match"

	"gopkg.in/yaml.v3"
)

var ErrInvalidGames = errors.New("invalid_games_config")

// GameSpec describes one game mode and how many arenas of it to host.
type GameSpec struct {
	Name   string   `yaml:"name"`
	Policy string   `yaml:"policy"`
	Arenas int      `yaml:"arenas"`
	MapDir string   `yaml:"map_dir"`
	Maps   []string `yaml:"maps"`

	// Rules names the damage/death rules active for this game's players.
	Rules []string `yaml:"rules"`

	RawArena yaml.Node    `yaml:"arena"`
	Arena    match.Config `yaml:"-"`
}

type gamesFile struct {
	Games []GameSpec `yaml:"games"`
}

var requiredArenaKeys = []string{
	"Timeout",
	"CountdownToStart",
	"CountdownArenaFull",
	"CountdownToReset",
	"PlayersCountToStart",
	"TeamSize",
	"Teams",
}

var policyNames = map[string]bool{"solo": true, "balanced": true, "choice": true}

func LoadGames(path string) ([]GameSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read games config: %w", err)
	}
	return ParseGames(data)
}

// ParseGames decodes and validates a games file. Any malformed game rejects the
// whole file.
func ParseGames(data []byte) ([]GameSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f gamesFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGames, err)
	}
	if len(f.Games) == 0 {
		return nil, fmt.Errorf("%w: no games defined", ErrInvalidGames)
	}
	seen := make(map[string]bool, len(f.Games))
	for i := range f.Games {
		g := &f.Games[i]
		if g.Name == "" {
			return nil, fmt.Errorf("%w: game #%d has no name", ErrInvalidGames, i)
		}
		if seen[g.Name] {
			return nil, fmt.Errorf("%w: duplicate game %q", ErrInvalidGames, g.Name)
		}
		seen[g.Name] = true
		if !policyNames[g.Policy] {
			return nil, fmt.Errorf("%w: game %q has unknown policy %q", ErrInvalidGames, g.Name, g.Policy)
		}
		if g.Arenas < 1 {
			return nil, fmt.Errorf("%w: game %q must host at least one arena", ErrInvalidGames, g.Name)
		}
		cfg, err := parseArena(&g.RawArena)
		if err != nil {
			return nil, fmt.Errorf("%w: game %q: %v", ErrInvalidGames, g.Name, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("game %q: %w", g.Name, err)
		}
		g.Arena = cfg
	}
	return f.Games, nil
}

func parseArena(n *yaml.Node) (match.Config, error) {
	var cfg match.Config
	if n.Kind != yaml.MappingNode {
		return cfg, errors.New("arena block must be a mapping")
	}
	present := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if present[key] {
			return cfg, fmt.Errorf("arena key %s repeated", key)
		}
		present[key] = true
		var err error
		switch key {
		case "Timeout":
			cfg.Timeout, err = intValue(key, val)
		case "CountdownToStart":
			cfg.CountdownToStart, err = intValue(key, val)
		case "CountdownArenaFull":
			cfg.CountdownArenaFull, err = intValue(key, val)
		case "CountdownToReset":
			cfg.CountdownToReset, err = intValue(key, val)
		case "PlayersCountToStart":
			cfg.PlayersCountToStart, err = intValue(key, val)
		case "TeamSize":
			cfg.TeamSize, err = intValue(key, val)
		case "SpectatorSlots":
			cfg.SpectatorSlots, err = intValue(key, val)
		case "AutoMapReset":
			cfg.AutoMapReset, err = boolValue(key, val)
		case "Teams":
			cfg.Teams, err = teamsValue(val)
		default:
			err = fmt.Errorf("unknown arena key %s", key)
		}
		if err != nil {
			return cfg, err
		}
	}
	for _, key := range requiredArenaKeys {
		if !present[key] {
			return cfg, fmt.Errorf("arena key %s is missing", key)
		}
	}
	return cfg, nil
}

func intValue(key string, n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, fmt.Errorf("arena key %s must be an integer", key)
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return 0, fmt.Errorf("arena key %s: %v", key, err)
	}
	return v, nil
}

func boolValue(key string, n *yaml.Node) (bool, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false, fmt.Errorf("arena key %s must be a boolean", key)
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		return false, fmt.Errorf("arena key %s: %v", key, err)
	}
	return v, nil
}

// teamsValue keeps document order; it decides team iteration order in the arena.
func teamsValue(n *yaml.Node) ([]match.TeamSpec, error) {
	if n.Kind != yaml.MappingNode {
		return nil, errors.New("arena key Teams must map team name to [color, external]")
	}
	teams := make([]match.TeamSpec, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, val := n.Content[i].Value, n.Content[i+1]
		if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
			return nil, fmt.Errorf("team %s must be [color, external]", name)
		}
		color, external := val.Content[0], val.Content[1]
		if color.Kind != yaml.ScalarNode || color.ShortTag() != "!!str" {
			return nil, fmt.Errorf("team %s color must be a string", name)
		}
		if external.Kind != yaml.ScalarNode || external.ShortTag() != "!!bool" {
			return nil, fmt.Errorf("team %s external flag must be a boolean", name)
		}
		var ext bool
		if err := external.Decode(&ext); err != nil {
			return nil, fmt.Errorf("team %s: %v", name, err)
		}
		teams = append(teams, match.TeamSpec{Name: name, Color: color.Value, External: ext})
	}
	return teams, nil
}
