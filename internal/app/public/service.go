package public

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"arena-core/internal/match"
	"arena-core/internal/store"
)

// Runner executes fn on the tick goroutine and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

type MatchReader interface {
	ListMatches(ctx context.Context, game string, limit, offset int) ([]store.MatchResult, error)
	GetMatch(ctx context.Context, id string) (*store.MatchResult, error)
	MatchStats(ctx context.Context, game string) (store.MatchStats, error)
}

// Service answers read-only questions about games, arenas and finished
// matches. Live state is copied on the tick goroutine; history comes from the
// store, which may be nil.
type Service struct {
	run     Runner
	manager *match.Manager
	history MatchReader
}

func NewService(run Runner, m *match.Manager, history MatchReader) *Service {
	return &Service{run: run, manager: m, history: history}
}

func (s *Service) Games(ctx context.Context) (*GamesResponse, error) {
	out := &GamesResponse{Items: []GameItem{}}
	err := s.run.Do(ctx, func() {
		for _, g := range s.manager.Games() {
			item := GameItem{
				Name:        g.Name(),
				Arenas:      g.Len(),
				Shards:      g.ShardCount(),
				Links:       len(g.Links()),
				MapRotation: g.MapRotation(),
			}
			for _, a := range g.Arenas() {
				if g.IsQuarantined(a.ID()) {
					item.Quarantined++
				}
			}
			if item.MapRotation == nil {
				item.MapRotation = []string{}
			}
			out.Items = append(out.Items, item)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Arenas(ctx context.Context, game string) (*ArenasResponse, error) {
	game = strings.TrimSpace(game)
	if game == "" {
		return nil, ErrInvalidRequest
	}
	var (
		out   *ArenasResponse
		found bool
	)
	err := s.run.Do(ctx, func() {
		g := s.manager.Game(game)
		if g == nil {
			return
		}
		found = true
		out = &ArenasResponse{Game: game, Items: make([]ArenaItem, 0, g.Len())}
		for _, a := range g.Arenas() {
			out.Items = append(out.Items, Summarize(a))
		}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", match.ErrGameNotFound, game)
	}
	return out, nil
}

func (s *Service) Arena(ctx context.Context, id string) (*ArenaItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidRequest
	}
	var out *ArenaItem
	err := s.run.Do(ctx, func() {
		if a := s.manager.ArenaByID(id); a != nil {
			item := Summarize(a)
			out = &item
		}
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s", match.ErrArenaNotFound, id)
	}
	return out, nil
}

func (s *Service) Matches(ctx context.Context, game string, limit, offset int) (*MatchesResponse, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	items, err := s.history.ListMatches(ctx, strings.TrimSpace(game), limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.MatchResult{}
	}
	return &MatchesResponse{Items: items, Limit: limit, Offset: offset}, nil
}

func (s *Service) Match(ctx context.Context, id string) (*store.MatchResult, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidRequest
	}
	return s.history.GetMatch(ctx, id)
}

func (s *Service) Stats(ctx context.Context, game string) (*store.MatchStats, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	game = strings.TrimSpace(game)
	if game == "" {
		return nil, ErrInvalidRequest
	}
	st, err := s.history.MatchStats(ctx, game)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Summarize copies the arena's state. Call it on the tick goroutine.
func Summarize(a *match.Arena) ArenaItem {
	item := ArenaItem{
		ArenaID:     a.ID(),
		Status:      a.Status().String(),
		Countdown:   a.Countdown(),
		Joinable:    a.IsJoinable(),
		FreeSlots:   a.FreeSlots(),
		PlayerSlots: a.PlayerSlots(),
		MaxPlayers:  a.MaxPlayers(),
		InGame:      a.CountInGeneral(),
		Teams:       make([]TeamItem, 0, len(a.Teams())),
	}
	if g := a.Game(); g != nil {
		item.Game = g.Name()
		item.Quarantined = g.IsQuarantined(a.ID())
	}
	if m := a.Map(); m != nil {
		item.Map = m.Name()
		if w := m.World(); w != nil {
			item.World = w.Name()
		}
	}
	for _, t := range a.Teams() {
		ti := TeamItem{
			Name:         t.Name(),
			Color:        t.Color(),
			External:     t.External(),
			Size:         t.Size(),
			FreeSlots:    t.FreeSlots(),
			Members:      make([]MemberItem, 0, t.Count()),
			Reservations: make([]string, 0),
		}
		for _, s := range t.Members() {
			ti.Members = append(ti.Members, MemberItem{Player: s.Name(), Status: s.Status().String()})
		}
		for name := range t.Reservations() {
			ti.Reservations = append(ti.Reservations, name)
		}
		sort.Strings(ti.Reservations)
		item.Teams = append(item.Teams, ti)
	}
	return item
}
