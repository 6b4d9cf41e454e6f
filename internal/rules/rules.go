// Package rules holds small damage and death listeners that game modes switch
// on per game. They only read core state and cancel events or remove
// sessions; they never seat anyone.
package rules

import (
	"errors"
	"fmt"
	"sort"

	"arena-core/internal/event"
	"arena-core/internal/match"

	"github.com/rs/zerolog/log"
)

var ErrUnknownRule = errors.New("unknown_rule")

// PermExternalDamage lets a player without a session hurt seated players
// under NoExternalDamage.
const PermExternalDamage = "allow.external.damage"

// Permissible is implemented by players that carry permissions.
type Permissible interface {
	HasPermission(perm string) bool
}

// Rule reacts to one kind of event for the sessions of a single game.
type Rule interface {
	Name() string
	Kind() event.Kind
	Priority() event.Priority
	Apply(m *match.Manager, e *event.Event)
}

var builtins = map[string]func() Rule{
	"no_damage":                func() Rule { return NoDamage{} },
	"no_team_damage":           func() Rule { return NoTeamDamage{} },
	"no_external_damage":       func() Rule { return NoExternalDamage{} },
	"damage_only_when_running": func() Rule { return DamageOnlyWhenRunning{} },
	"clean_death":              func() Rule { return CleanDeath{} },
	"quit_when_die":            func() Rule { return QuitWhenDie{} },
}

// Names lists the built-in rules, sorted.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for name := range builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func ByName(name string) (Rule, error) {
	mk, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	return mk(), nil
}

// Parse resolves a list of configured rule names.
func Parse(names []string) ([]Rule, error) {
	out := make([]Rule, 0, len(names))
	for _, name := range names {
		r, err := ByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Register subscribes each rule for game. The rule only sees events whose
// session sits in one of that game's arenas. Registering a rule twice for the
// same game replaces the earlier listener.
func Register(m *match.Manager, game string, rules ...Rule) error {
	for _, r := range rules {
		err := m.Bus().Subscribe(r.Kind(), listenerName(game, r), r.Priority(), func(e *event.Event) {
			if inGame(e, game) {
				r.Apply(m, e)
			}
		})
		if err != nil {
			return fmt.Errorf("register rule %s: %w", r.Name(), err)
		}
		log.Debug().Str("game", game).Str("rule", r.Name()).Msg("rule registered")
	}
	return nil
}

func Unregister(m *match.Manager, game string, rules ...Rule) {
	for _, r := range rules {
		m.Bus().Unsubscribe(r.Kind(), listenerName(game, r))
	}
}

// Registered reports whether r is active for game.
func Registered(m *match.Manager, game string, r Rule) bool {
	return m.Bus().Has(r.Kind(), listenerName(game, r))
}

func listenerName(game string, r Rule) string {
	return "rule:" + game + ":" + r.Name()
}

func inGame(e *event.Event, game string) bool {
	var s *match.Session
	switch p := e.Payload.(type) {
	case match.Damage:
		s = p.Victim
	case match.Death:
		s = p.Session
	default:
		return false
	}
	if s == nil || s.Arena() == nil || s.Arena().Game() == nil {
		return false
	}
	return s.Arena().Game().Name() == game
}
