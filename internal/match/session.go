package match

import (
	"fmt"

	"arena-core/internal/event"

	"github.com/rs/zerolog/log"
)

// Session is a player's presence in the match system: at most one arena, at
// most one team, and a status. Sessions are created by Manager.AddSession.
type Session struct {
	player  Player
	manager *Manager
	arena   *Arena
	team    *Team
	status  SessionStatus
	party   *Party
}

func newSession(m *Manager, p Player) *Session {
	return &Session{player: p, manager: m, status: SessionBusy}
}

func (s *Session) Name() string          { return s.player.Name() }
func (s *Session) Player() Player        { return s.player }
func (s *Session) Arena() *Arena         { return s.arena }
func (s *Session) Team() *Team           { return s.team }
func (s *Session) Status() SessionStatus { return s.status }
func (s *Session) Party() *Party         { return s.party }

func (s *Session) IsAlive() bool      { return s.status == SessionAlive }
func (s *Session) IsSpectating() bool { return s.status == SessionSpectating }
func (s *Session) IsBusy() bool       { return s.status == SessionBusy }

// InGame reports whether the session is seated in an arena.
func (s *Session) InGame() bool { return s.arena != nil && s.team != nil }

func (s *Session) OwnsParty() bool {
	return s.party != nil && !s.party.disbanded && s.party.owner == s.Name()
}

// SendTo moves the session into a, seating it through the arena's policy. A
// nil arena just takes the session out of its current arena. On failure the
// session ends up in no arena and the player's reservations in a are as
// they were.
func (s *Session) SendTo(a *Arena, status SessionStatus) error {
	if a == nil {
		s.leave(ReasonLeft)
		s.status = status
		return nil
	}
	if a.closed || (!a.joinable && status == SessionAlive) {
		return fmt.Errorf("%w: %s", ErrArenaNotJoinable, a.id)
	}
	if s.arena != nil {
		s.leave(ReasonSwitched)
	}

	held := a.heldReservations(s.Name())
	s.arena = a
	s.status = status
	team, ok := a.seat(s)
	if !ok {
		a.restoreReservations(s.Name(), held)
		s.arena = nil
		return fmt.Errorf("%w: %s in arena %s", ErrSeatingFailed, s.Name(), a.id)
	}
	if s.OwnsParty() {
		if err := s.bringParty(team); err != nil {
			team.RemoveMember(s.Name())
			a.restoreReservations(s.Name(), held)
			s.arena = nil
			return err
		}
	}

	a.log.Debug().
		Str("player", s.Name()).
		Str("team", team.name).
		Str("status", status.String()).
		Msg("session seated")
	a.publish(event.PlayerJoin, PlayerJoined{Session: s, Arena: a})
	return nil
}

// bringParty links the owner's party mates to the arena and holds slots for
// them on the owner's team.
func (s *Session) bringParty(team *Team) error {
	a := team.arena
	mates := make([]string, 0, len(s.party.members))
	for _, name := range s.party.Members() {
		if other := s.manager.Session(name); other != nil && other.arena == a {
			continue
		}
		mates = append(mates, name)
	}
	if len(mates) == 0 {
		return nil
	}
	if !team.AddReservation(mates...) {
		if s.party.RequireSameTeam() {
			return fmt.Errorf("%w: %d mates, %d free on %s", ErrPartyDoesNotFit, len(mates), team.FreeSlots(), team.name)
		}
		log.Debug().
			Str("arena_id", a.id).
			Str("player", s.Name()).
			Msg("party does not fit owner's team; mates will be seated individually")
	}
	for _, name := range mates {
		a.game.Link(name, a.id)
	}
	return nil
}

// leave takes the session out of its arena and team and announces it. The
// session is detached before listeners run, so a listener removing the
// session again is harmless.
func (s *Session) leave(reason string) {
	a, team := s.arena, s.team
	if a == nil && team == nil {
		return
	}
	if team != nil {
		team.RemoveMember(s.Name())
	}
	s.team = nil
	s.arena = nil
	if a != nil {
		a.publish(event.PlayerQuit, PlayerQuit{Session: s, Arena: a, Team: team, Reason: reason})
	}
}

// SetStatus changes what the session is doing and refreshes its team's tallies.
func (s *Session) SetStatus(status SessionStatus) {
	s.status = status
	if s.team != nil {
		s.team.UpdateStatus()
	}
}

// SetParty switches the session to p. Leaving a party the session owns
// disbands it; leaving someone else's party just drops this member.
func (s *Session) SetParty(p *Party) {
	if s.party == p {
		return
	}
	old := s.party
	s.party = p
	if old == nil || old.disbanded {
		return
	}
	if old.owner == s.Name() {
		old.Disband()
		return
	}
	old.Remove(s.Name())
}
