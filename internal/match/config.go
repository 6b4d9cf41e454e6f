package match

import "fmt"

// TeamSpec declares one team of an arena. Order within Config.Teams is the
// order teams are created and iterated.
type TeamSpec struct {
	Name     string
	Color    string
	External bool
}

// Config is the arena-type definition. Durations are counted in arena
// updates, not ticks.
type Config struct {
	Timeout             int
	CountdownToStart    int
	CountdownArenaFull  int
	CountdownToReset    int
	PlayersCountToStart int
	TeamSize            int
	Teams               []TeamSpec

	AutoMapReset bool
	// Advertised size of each external team, reported through FreeSlots.
	// Spectators are seated past it. Zero means one slot per player of the
	// arena.
	SpectatorSlots int
}

func (c Config) Validate() error {
	if len(c.Teams) == 0 {
		return fmt.Errorf("%w: no teams", ErrInvalidConfig)
	}
	if c.TeamSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTeamSize, c.TeamSize)
	}
	if c.Timeout < 0 || c.CountdownToStart < 0 || c.CountdownArenaFull < 0 || c.CountdownToReset < 0 {
		return fmt.Errorf("%w: countdowns must not be negative", ErrInvalidConfig)
	}
	if c.PlayersCountToStart < 1 {
		return fmt.Errorf("%w: PlayersCountToStart must be at least 1", ErrInvalidConfig)
	}
	if c.SpectatorSlots < 0 {
		return fmt.Errorf("%w: SpectatorSlots must not be negative", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Teams))
	playing := 0
	for _, t := range c.Teams {
		if t.Name == "" {
			return fmt.Errorf("%w: team without a name", ErrInvalidConfig)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: team %q declared twice", ErrInvalidConfig, t.Name)
		}
		seen[t.Name] = true
		if !t.External {
			playing++
		}
	}
	if playing == 0 {
		return fmt.Errorf("%w: no playing team", ErrInvalidConfig)
	}
	return nil
}

func (c Config) playingTeams() int {
	n := 0
	for _, t := range c.Teams {
		if !t.External {
			n++
		}
	}
	return n
}

func (c Config) spectatorSlots() int {
	if c.SpectatorSlots > 0 {
		return c.SpectatorSlots
	}
	return c.TeamSize * c.playingTeams()
}

func (c Config) clone() Config {
	c.Teams = append([]TeamSpec(nil), c.Teams...)
	return c
}
