package match

import (
	"fmt"
	"sync"
)

// Policy is the per-game-mode strategy an arena consults to seat players and
// to pick a winner when a match ends.
type Policy interface {
	// SeatSession picks the team for a session that is not spectating. The
	// arena performs the actual AddMember.
	SeatSession(a *Arena, s *Session) (*Team, bool)
	// DetermineWinner picks among the teams that still have players in
	// game. Nil means no winner.
	DetermineWinner(a *Arena, remaining []*Team) *Team
}

// Starter is implemented by policies that prepare the match when it starts.
type Starter interface {
	OnStart(a *Arena)
}

// Ender is implemented by policies that react to the end of a match, before
// the winner is announced.
type Ender interface {
	OnEnd(a *Arena)
}

// PolicyByName builds the stock policy for a configured game mode.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "solo":
		return Solo{}, nil
	case "balanced":
		return Balanced{}, nil
	case "choice":
		return NewChoice(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
	}
}

// Solo seats every player on the first team with room for them, which with
// one-slot teams is a free-for-all.
type Solo struct{}

func (Solo) SeatSession(a *Arena, s *Session) (*Team, bool) {
	t := a.FindFreeTeam(s.Name(), false, nil)
	return t, t != nil
}

// DetermineWinner names the last team standing; anything else is a draw.
func (Solo) DetermineWinner(_ *Arena, remaining []*Team) *Team {
	if len(remaining) == 1 {
		return remaining[0]
	}
	return nil
}

// Balanced keeps playing teams even: a reserved slot wins, party owners go
// where their whole party fits, everyone else joins the smallest team.
type Balanced struct{}

func (Balanced) SeatSession(a *Arena, s *Session) (*Team, bool) {
	if t := reservedTeam(a, s.Name()); t != nil {
		return t, true
	}
	if s.OwnsParty() {
		if t := a.FindFreeTeam(s.Name(), false, s.party.Members()); t != nil {
			return t, true
		}
	}
	t := smallestTeam(a)
	return t, t != nil
}

// DetermineWinner picks the team with the most players left in game. Ties
// are a draw.
func (Balanced) DetermineWinner(_ *Arena, remaining []*Team) *Team {
	return largestTeam(remaining)
}

// Choice lets players pick a team ahead of joining and falls back to
// Balanced when no preference is set or the chosen team is full.
type Choice struct {
	mu    sync.Mutex
	prefs map[string]string
}

func NewChoice() *Choice {
	return &Choice{prefs: make(map[string]string)}
}

// Prefer records the team a player wants. An empty team clears it.
func (c *Choice) Prefer(player, team string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if team == "" {
		delete(c.prefs, player)
		return
	}
	c.prefs[player] = team
}

func (c *Choice) Preference(player string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.prefs[player]
	return t, ok
}

func (c *Choice) SeatSession(a *Arena, s *Session) (*Team, bool) {
	if want, ok := c.Preference(s.Name()); ok {
		if t := a.Team(want); t != nil && !t.external && (t.HasReservation(s.Name()) || t.FreeSlots() > 0) {
			return t, true
		}
	}
	return Balanced{}.SeatSession(a, s)
}

func (c *Choice) DetermineWinner(a *Arena, remaining []*Team) *Team {
	return largestTeam(remaining)
}

func reservedTeam(a *Arena, player string) *Team {
	for _, t := range a.teams {
		if !t.external && t.HasReservation(player) {
			return t
		}
	}
	return nil
}

func smallestTeam(a *Arena) *Team {
	var best *Team
	for _, t := range a.teams {
		if t.external || t.FreeSlots() == 0 {
			continue
		}
		if best == nil || t.GlobalCount() < best.GlobalCount() {
			best = t
		}
	}
	return best
}

func largestTeam(teams []*Team) *Team {
	var best *Team
	tie := false
	for _, t := range teams {
		switch {
		case best == nil || t.CountInGame() > best.CountInGame():
			best, tie = t, false
		case t.CountInGame() == best.CountInGame():
			tie = true
		}
	}
	if tie {
		return nil
	}
	return best
}
