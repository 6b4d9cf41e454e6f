package main

import (
	"fmt"

	"arena-core/internal/config"
	"arena-core/internal/maps"
	"arena-core/internal/match"
	"arena-core/internal/rules"

	"github.com/rs/zerolog/log"
)

// setupGames registers every configured game with its arenas, map rotation
// and rules.
func setupGames(m *match.Manager, catalog *maps.Catalog, specs []config.GameSpec) error {
	for _, spec := range specs {
		if spec.MapDir != "" {
			if err := catalog.Load(spec.MapDir); err != nil {
				return fmt.Errorf("game %s: load maps: %w", spec.Name, err)
			}
		}
		active, err := rules.Parse(spec.Rules)
		if err != nil {
			return fmt.Errorf("game %s: %w", spec.Name, err)
		}
		policy, err := match.PolicyByName(spec.Policy)
		if err != nil {
			return fmt.Errorf("game %s: %w", spec.Name, err)
		}

		g, err := m.AddGame(spec.Name)
		if err != nil {
			return err
		}
		// New arenas take their first map from the rotation.
		g.SetMapRotation(spec.Maps)
		for i := 0; i < spec.Arenas; i++ {
			if _, err := g.NewArena(spec.Arena, policy); err != nil {
				return fmt.Errorf("game %s: arena #%d: %w", spec.Name, i, err)
			}
		}
		if err := rules.Register(m, spec.Name, active...); err != nil {
			return err
		}
		log.Info().
			Str("game", spec.Name).
			Str("policy", spec.Policy).
			Int("arenas", spec.Arenas).
			Strs("maps", spec.Maps).
			Strs("rules", spec.Rules).
			Msg("game registered")
	}
	return nil
}
