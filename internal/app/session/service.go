package session

import (
	"context"
	"fmt"
	"strings"

	"arena-core/internal/match"
)

type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Service runs player and arena commands against the match manager. Every
// call hops onto the tick goroutine through the runner.
type Service struct {
	run     Runner
	manager *match.Manager
}

func NewService(run Runner, m *match.Manager) *Service {
	return &Service{run: run, manager: m}
}

func (s *Service) Join(ctx context.Context, in JoinInput) (*SessionItem, error) {
	in.Player = strings.TrimSpace(in.Player)
	in.Game = strings.TrimSpace(in.Game)
	if in.Player == "" || in.Game == "" {
		return nil, ErrInvalidRequest
	}
	var (
		out *SessionItem
		err error
	)
	doErr := s.run.Do(ctx, func() {
		out, err = s.join(in)
	})
	if doErr != nil {
		return nil, doErr
	}
	return out, err
}

// join leaves no party or team choice behind when the player is not seated.
func (s *Service) join(in JoinInput) (*SessionItem, error) {
	if s.manager.Session(in.Player) != nil {
		return nil, fmt.Errorf("%w: %s", match.ErrAlreadyInSession, in.Player)
	}
	undoPrefer := func() {}
	if in.Team != "" {
		undo, err := s.prefer(in.Game, in.Player, in.Team)
		if err != nil {
			return nil, err
		}
		undoPrefer = undo
	}
	var party *match.Party
	if len(in.Party) > 0 {
		party = s.manager.CreateParty(in.Player, in.Party, in.SameTeam)
	}
	status := match.SessionAlive
	if in.Spectate {
		status = match.SessionSpectating
	}
	sess, err := s.manager.Join(NewPlayer(in.Player, in.Permissions...), in.Game, status, party)
	if err != nil {
		if party != nil {
			party.Disband()
		}
		undoPrefer()
		return nil, err
	}
	item := describe(sess, false)
	return &item, nil
}

// prefer records the team choice on every choice-seated arena of the game.
// The returned func puts back the choices it replaced.
func (s *Service) prefer(game, player, team string) (func(), error) {
	g := s.manager.Game(game)
	if g == nil {
		return nil, fmt.Errorf("%w: %s", match.ErrGameNotFound, game)
	}
	var undo []func()
	for _, a := range g.Arenas() {
		if c, ok := a.Policy().(*match.Choice); ok {
			prev, _ := c.Preference(player)
			c.Prefer(player, team)
			undo = append(undo, func() { c.Prefer(player, prev) })
		}
	}
	if len(undo) == 0 {
		return nil, fmt.Errorf("%w: game %s", ErrTeamChoiceNotAllowed, game)
	}
	return func() {
		// Arenas may share one Choice, so unwind newest first.
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}, nil
}

func (s *Service) Leave(ctx context.Context, player string) error {
	player = strings.TrimSpace(player)
	if player == "" {
		return ErrInvalidRequest
	}
	found := false
	err := s.run.Do(ctx, func() {
		if s.manager.Session(player) == nil {
			return
		}
		found = true
		s.manager.RemoveSession(player, match.ReasonLeft)
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, player)
	}
	return nil
}

// Get describes the player's session. With drain set, queued messages are
// returned and cleared.
func (s *Service) Get(ctx context.Context, player string, drain bool) (*SessionItem, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, ErrInvalidRequest
	}
	var out *SessionItem
	err := s.run.Do(ctx, func() {
		if sess := s.manager.Session(player); sess != nil {
			item := describe(sess, drain)
			out = &item
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, player)
	}
	return out, nil
}

// Move sends an existing session into another arena.
func (s *Service) Move(ctx context.Context, in MoveInput) (*SessionItem, error) {
	if strings.TrimSpace(in.Player) == "" || strings.TrimSpace(in.ArenaID) == "" {
		return nil, ErrInvalidRequest
	}
	var (
		out *SessionItem
		err error
	)
	doErr := s.run.Do(ctx, func() {
		sess := s.manager.Session(in.Player)
		if sess == nil {
			err = fmt.Errorf("%w: %s", ErrSessionNotFound, in.Player)
			return
		}
		a := s.manager.ArenaByID(in.ArenaID)
		if a == nil {
			err = fmt.Errorf("%w: %s", match.ErrArenaNotFound, in.ArenaID)
			return
		}
		status := match.SessionAlive
		if in.Spectate {
			status = match.SessionSpectating
		}
		if err = sess.SendTo(a, status); err != nil {
			return
		}
		item := describe(sess, false)
		out = &item
	})
	if doErr != nil {
		return nil, doErr
	}
	return out, err
}

// AssignMap checks a map out of the catalog for the arena. The world may
// still be loading when this returns.
func (s *Service) AssignMap(ctx context.Context, arenaID, mapName string) error {
	arenaID, mapName = strings.TrimSpace(arenaID), strings.TrimSpace(mapName)
	if arenaID == "" || mapName == "" {
		return ErrInvalidRequest
	}
	var err error
	doErr := s.run.Do(ctx, func() {
		a := s.manager.ArenaByID(arenaID)
		if a == nil {
			err = fmt.Errorf("%w: %s", match.ErrArenaNotFound, arenaID)
			return
		}
		err = s.manager.AssignMap(a, mapName)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// Finish ends the arena's running match on its next update.
func (s *Service) Finish(ctx context.Context, arenaID string) error {
	if strings.TrimSpace(arenaID) == "" {
		return ErrInvalidRequest
	}
	var err error
	doErr := s.run.Do(ctx, func() {
		a := s.manager.ArenaByID(arenaID)
		switch {
		case a == nil:
			err = fmt.Errorf("%w: %s", match.ErrArenaNotFound, arenaID)
		case !a.Is(match.StatusRunning):
			err = fmt.Errorf("%w: %s is %s", ErrArenaNotRunning, arenaID, a.Status())
		default:
			a.Finish()
		}
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// Damage reports damage the game world wants to apply and whether the
// active rules let it through.
func (s *Service) Damage(ctx context.Context, in DamageInput) (*DamageResult, error) {
	if strings.TrimSpace(in.Victim) == "" || in.Amount < 0 || in.Health <= 0 {
		return nil, ErrInvalidRequest
	}
	var (
		out *DamageResult
		err error
	)
	doErr := s.run.Do(ctx, func() {
		if s.manager.Session(in.Victim) == nil {
			err = fmt.Errorf("%w: %s", ErrSessionNotFound, in.Victim)
			return
		}
		var attacker match.Player
		if in.Attacker != "" {
			if as := s.manager.Session(in.Attacker); as != nil {
				attacker = as.Player()
			} else {
				attacker = NewPlayer(in.Attacker)
			}
		}
		cancelled := s.manager.DispatchDamage(in.Victim, attacker, in.Amount, in.Health)
		out = &DamageResult{
			Victim:    in.Victim,
			Cancelled: cancelled,
			InSession: s.manager.Session(in.Victim) != nil,
		}
	})
	if doErr != nil {
		return nil, doErr
	}
	return out, err
}

func describe(sess *match.Session, drain bool) SessionItem {
	item := SessionItem{Player: sess.Name(), Status: sess.Status().String()}
	if a := sess.Arena(); a != nil {
		item.ArenaID = a.ID()
		if g := a.Game(); g != nil {
			item.Game = g.Name()
		}
	}
	if t := sess.Team(); t != nil {
		item.Team = t.Name()
	}
	if p := sess.Party(); p != nil && !p.Disbanded() {
		item.PartyOwner = p.Owner()
	}
	if drain {
		if p, ok := sess.Player().(*Player); ok {
			item.Messages = p.Drain()
		}
	}
	return item
}
