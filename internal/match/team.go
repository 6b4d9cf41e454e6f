package match

import (
	"fmt"
	"sort"
	"time"
)

// Team is a capacity-limited group of sessions inside one arena. External
// teams (spectators) never count toward the in-game population.
type Team struct {
	name     string
	color    string
	external bool
	size     int
	arena    *Arena

	members      map[string]*Session
	reservations map[string]time.Time

	alive      int
	spectating int
	busy       int
}

func NewTeam(name, color string, external bool, size int) (*Team, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: team %q size %d", ErrInvalidTeamSize, name, size)
	}
	return &Team{
		name:         name,
		color:        color,
		external:     external,
		size:         size,
		members:      make(map[string]*Session),
		reservations: make(map[string]time.Time),
	}, nil
}

func (t *Team) Name() string   { return t.name }
func (t *Team) Color() string  { return t.color }
func (t *Team) External() bool { return t.external }
func (t *Team) Size() int      { return t.size }
func (t *Team) Arena() *Arena  { return t.arena }
func (t *Team) IsSolo() bool   { return t.size == 1 }

// Count is the number of members, whatever their status.
func (t *Team) Count() int { return len(t.members) }

// GlobalCount is members plus outstanding reservations.
func (t *Team) GlobalCount() int { return len(t.members) + len(t.reservations) }

func (t *Team) FreeSlots() int {
	free := t.size - t.GlobalCount()
	if free < 0 {
		return 0
	}
	return free
}

func (t *Team) IsFull() bool  { return t.FreeSlots() == 0 }
func (t *Team) IsEmpty() bool { return len(t.members) == 0 }

// CountInGame is the number of alive members. External teams always report 0.
func (t *Team) CountInGame() int {
	if t.external {
		return 0
	}
	return t.alive
}

func (t *Team) CountSpectating() int { return t.spectating }
func (t *Team) CountBusy() int       { return t.busy }

func (t *Team) IsMember(player string) bool {
	_, ok := t.members[player]
	return ok
}

// Members returns the member sessions ordered by player name.
func (t *Team) Members() []*Session {
	out := make([]*Session, 0, len(t.members))
	for _, s := range t.members {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (t *Team) MemberNames() []string {
	out := make([]string, 0, len(t.members))
	for name := range t.members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *Team) HasReservation(player string) bool {
	_, ok := t.reservations[player]
	return ok
}

// Reservations returns a copy of player → time the reservation was made.
func (t *Team) Reservations() map[string]time.Time {
	out := make(map[string]time.Time, len(t.reservations))
	for k, v := range t.reservations {
		out[k] = v
	}
	return out
}

// AddMember seats s on this team. It reports false, without error, when the
// player is already seated, a playing team has no slot for them, or a
// spectator tries to join a team that still has players in game. External
// teams take members past their size. A session bound to a different arena is
// an error.
func (t *Team) AddMember(s *Session) (bool, error) {
	if t.arena == nil || s.arena != t.arena {
		return false, fmt.Errorf("%w: %s into team %s", ErrCrossArena, s.Name(), t.name)
	}
	name := s.Name()
	if _, ok := t.members[name]; ok || s.team != nil {
		return false, nil
	}
	if s.status == SessionSpectating && t.CountInGame() > 0 {
		return false, nil
	}
	if _, reserved := t.reservations[name]; !t.external && !reserved && t.FreeSlots() < 1 {
		return false, nil
	}
	delete(t.reservations, name)
	for _, other := range t.arena.teams {
		if other != t {
			other.RemoveReservation(name)
		}
	}
	t.members[name] = s
	s.team = t
	t.UpdateStatus()
	return true, nil
}

// RemoveMember drops player from the team. Unknown players are ignored.
func (t *Team) RemoveMember(player string) {
	s, ok := t.members[player]
	if !ok {
		return
	}
	delete(t.members, player)
	if s.team == t {
		s.team = nil
	}
	t.UpdateStatus()
}

// CanReserveSpace reports whether n more players fit. External teams always
// have room.
func (t *Team) CanReserveSpace(n int) bool {
	return t.external || t.FreeSlots() >= n
}

// AddReservation holds a slot for each player, all or nothing. A player who
// already holds a reservation here keeps it with a fresh timestamp; a
// reservation on another team of the same arena moves here.
func (t *Team) AddReservation(players ...string) bool {
	if len(players) == 0 {
		return false
	}
	unique := make([]string, 0, len(players))
	seen := make(map[string]bool, len(players))
	need := 0
	for _, p := range players {
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, member := t.members[p]; member {
			return false
		}
		if _, held := t.reservations[p]; !held {
			need++
		}
		unique = append(unique, p)
	}
	if need > 0 && !t.CanReserveSpace(need) {
		return false
	}
	now := t.now()
	for _, p := range unique {
		if t.arena != nil {
			for _, other := range t.arena.teams {
				if other != t {
					other.RemoveReservation(p)
				}
			}
		}
		t.reservations[p] = now
	}
	return true
}

func (t *Team) RemoveReservation(player string) {
	delete(t.reservations, player)
}

// UpdateStatus recomputes the per-status tallies from the members.
func (t *Team) UpdateStatus() {
	t.alive, t.spectating, t.busy = 0, 0, 0
	for _, s := range t.members {
		switch s.status {
		case SessionAlive:
			t.alive++
		case SessionSpectating:
			t.spectating++
		case SessionBusy:
			t.busy++
		}
	}
}

// Message delivers msg to every member, or only to alive members when
// inGameOnly is set.
func (t *Team) Message(msg string, inGameOnly bool) {
	for _, s := range t.Members() {
		if inGameOnly && s.status != SessionAlive {
			continue
		}
		s.player.SendMessage(msg)
	}
}

func (t *Team) Tip(msg string, inGameOnly bool) {
	for _, s := range t.Members() {
		if inGameOnly && s.status != SessionAlive {
			continue
		}
		s.player.SendTip(msg)
	}
}

func (t *Team) Popup(msg, subtitle string, inGameOnly bool) {
	for _, s := range t.Members() {
		if inGameOnly && s.status != SessionAlive {
			continue
		}
		s.player.SendPopup(msg, subtitle)
	}
}

// CleanUp evicts every member from the server's session registry and drops
// all reservations.
func (t *Team) CleanUp(reason string) {
	m := t.manager()
	for _, s := range t.Members() {
		if m != nil && m.sessions[s.Name()] == s {
			m.RemoveSession(s.Name(), reason)
		}
		if _, still := t.members[s.Name()]; still {
			s.leave(reason)
		}
	}
	t.reservations = make(map[string]time.Time)
	t.UpdateStatus()
}

func (t *Team) manager() *Manager {
	if t.arena == nil || t.arena.game == nil {
		return nil
	}
	return t.arena.game.manager
}

func (t *Team) now() time.Time {
	if m := t.manager(); m != nil {
		return m.now()
	}
	return time.Now()
}
