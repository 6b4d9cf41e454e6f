package match

import "arena-core/internal/maps"

// Event payloads published on the manager's bus.

type PlayerJoined struct {
	Session *Session
	Arena   *Arena
}

// PlayerQuit is published after the session has been detached; Arena and
// Team are where it was.
type PlayerQuit struct {
	Session *Session
	Arena   *Arena
	Team    *Team
	Reason  string
}

// GameOver is published once per match, while Winner is still set on the arena.
type GameOver struct {
	Arena  *Arena
	Winner *Team
}

type StatusChanged struct {
	Arena *Arena
	From  Status
	To    Status
}

type MapChanged struct {
	Arena *Arena
	Map   *maps.Map
}

// Damage is raised by the embedding server before it applies damage to a
// seated player. Attacker is nil for environmental damage.
type Damage struct {
	Victim          *Session
	Attacker        Player
	AttackerSession *Session
	Amount          float64
	Health          float64
}

func (d Damage) Lethal() bool { return d.Amount >= d.Health }

type Death struct {
	Session *Session
}

const (
	ReasonLeft         = "left"
	ReasonSwitched     = "switched_arena"
	ReasonArenaReset   = "arena_reset"
	ReasonArenaClosed  = "arena_closed"
	ReasonTeamRemoved  = "team_removed"
	ReasonDied         = "died"
	ReasonShutdown     = "shutdown"
	ReasonDisconnected = "disconnected"
)
