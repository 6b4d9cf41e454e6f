package match

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arena-core/internal/event"
	"arena-core/internal/maps"
	"arena-core/internal/scheduler"

	"github.com/rs/zerolog/log"
)

// Scheduler is the part of the tick loop the match system depends on. All
// Manager, Game, Arena, Team, Session and Party methods must be called from
// the goroutine that runs these tasks and posted functions.
type Scheduler interface {
	ScheduleRepeating(fn func(tick int64), period, delay int64) scheduler.Handle
	Cancel(h scheduler.Handle)
	Post(fn func())
}

type Options struct {
	Scheduler Scheduler
	Bus       *event.Bus
	Maps      *maps.Catalog
	// Worlds loads map worlds off the tick goroutine. Nil binds maps
	// without a world, synchronously.
	Worlds maps.WorldProvider
	// UpdatePeriod is the number of ticks between two updates of an arena.
	UpdatePeriod int64
	LinkTTL      time.Duration
	Now          func() time.Time
}

// Manager is the process-wide registry of games and sessions.
type Manager struct {
	sched        Scheduler
	bus          *event.Bus
	maps         *maps.Catalog
	worlds       maps.WorldProvider
	updatePeriod int64
	linkTTL      time.Duration
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	games     map[string]*Game
	gameOrder []string
	sessions  map[string]*Session
}

func NewManager(opts Options) *Manager {
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.New(20)
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	if opts.Maps == nil {
		opts.Maps = maps.NewCatalog()
	}
	if opts.UpdatePeriod < 1 {
		opts.UpdatePeriod = 20
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sched:        opts.Scheduler,
		bus:          opts.Bus,
		maps:         opts.Maps,
		worlds:       opts.Worlds,
		updatePeriod: opts.UpdatePeriod,
		linkTTL:      opts.LinkTTL,
		now:          opts.Now,
		ctx:          ctx,
		cancel:       cancel,
		games:        make(map[string]*Game),
		sessions:     make(map[string]*Session),
	}
}

func (m *Manager) Bus() *event.Bus     { return m.bus }
func (m *Manager) Maps() *maps.Catalog { return m.maps }
func (m *Manager) UpdatePeriod() int64 { return m.updatePeriod }
func (m *Manager) Now() time.Time      { return m.now() }

func (m *Manager) AddGame(name string) (*Game, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty game name", ErrInvalidConfig)
	}
	if _, ok := m.games[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateGame, name)
	}
	g := newGame(m, name)
	m.games[name] = g
	m.gameOrder = append(m.gameOrder, name)
	log.Info().Str("game", name).Msg("game registered")
	return g, nil
}

func (m *Manager) Game(name string) *Game { return m.games[name] }

// Games returns games in registration order.
func (m *Manager) Games() []*Game {
	out := make([]*Game, 0, len(m.gameOrder))
	for _, name := range m.gameOrder {
		out = append(out, m.games[name])
	}
	return out
}

func (m *Manager) ArenaByID(id string) *Arena {
	for _, name := range m.gameOrder {
		if a := m.games[name].byID[id]; a != nil {
			return a
		}
	}
	return nil
}

func (m *Manager) Session(player string) *Session { return m.sessions[player] }

func (m *Manager) SessionCount() int { return len(m.sessions) }

// SessionNames returns every player with a session, sorted.
func (m *Manager) SessionNames() []string {
	out := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddSession creates the player's session and sends it into a. A player has
// at most one session; nothing is registered when seating fails.
func (m *Manager) AddSession(p Player, a *Arena, party *Party, status SessionStatus) (*Session, error) {
	name := p.Name()
	if _, ok := m.sessions[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInSession, name)
	}
	if a == nil {
		return nil, ErrNoFreeArena
	}
	s := newSession(m, p)
	if party != nil && !party.disbanded && party.Has(name) {
		s.party = party
	}
	m.sessions[name] = s
	if err := s.SendTo(a, status); err != nil {
		delete(m.sessions, name)
		metricJoinErrors.Add(1)
		return nil, err
	}
	metricSessionsActive.Add(1)
	metricJoinTotal.Add(1)
	return s, nil
}

// RemoveSession takes the player out of their arena and forgets the session.
// A party the player owns is disbanded. Unknown players are ignored.
func (m *Manager) RemoveSession(player, reason string) {
	s, ok := m.sessions[player]
	if !ok {
		return
	}
	delete(m.sessions, player)
	metricSessionsActive.Add(-1)
	if s.OwnsParty() {
		s.party.Disband()
	}
	s.party = nil
	s.leave(reason)
}

// Join routes a player into the game: their linked arena if any, else the
// first arena with room.
func (m *Manager) Join(p Player, game string, status SessionStatus, party *Party) (*Session, error) {
	g := m.games[game]
	if g == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, game)
	}
	if _, ok := m.sessions[p.Name()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInSession, p.Name())
	}
	a := g.GetFreeArena(p.Name(), status)
	if a == nil {
		metricJoinErrors.Add(1)
		return nil, fmt.Errorf("%w: %s", ErrNoFreeArena, game)
	}
	s, err := m.AddSession(p, a, party, status)
	if err != nil {
		return nil, err
	}
	g.Unlink(p.Name())
	return s, nil
}

// CreateParty forms a party and attaches it to any of its players that have
// a session and no party yet.
func (m *Manager) CreateParty(owner string, members []string, requireSameTeam bool) *Party {
	p := &Party{manager: m, owner: owner, together: requireSameTeam}
	if s := m.sessions[owner]; s != nil && s.party == nil {
		s.party = p
	}
	for _, name := range members {
		p.Add(name)
	}
	return p
}

// AssignMap checks out a copy of the named map for a. With a world provider
// the world loads in the background and the map is bound on a later tick.
func (m *Manager) AssignMap(a *Arena, name string) error {
	if a.closed || a.game == nil {
		return fmt.Errorf("%w: %s", ErrArenaNotFound, a.id)
	}
	if a.status == StatusRunning {
		return fmt.Errorf("%w: arena %s", ErrMapWhileRunning, a.id)
	}
	mp, ok := m.maps.Get(a.game.name, name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrMapNotFound, a.game.name, name)
	}
	if m.worlds == nil {
		return a.SetMap(mp)
	}
	go func() {
		h, err := m.worlds.LoadWorld(m.ctx, mp)
		m.sched.Post(func() { m.bindLoadedWorld(a, mp, h, err) })
	}()
	return nil
}

func (m *Manager) bindLoadedWorld(a *Arena, mp *maps.Map, h maps.WorldHandle, err error) {
	if err != nil {
		a.log.Error().Err(err).Str("map", mp.Name()).Msg("load world failed")
		return
	}
	if a.closed {
		a.unloadWorld(h)
		return
	}
	mp.BindWorld(h)
	if err := a.SetMap(mp); err != nil {
		mp.BindWorld(nil)
		a.unloadWorld(h)
		a.log.Warn().Err(err).Str("map", mp.Name()).Msg("loaded world discarded")
	}
}

// DispatchDamage raises a Damage event for a seated victim and reports
// whether a listener cancelled it. Damage to players outside any arena is
// never cancelled.
func (m *Manager) DispatchDamage(victim string, attacker Player, amount, health float64) bool {
	s := m.sessions[victim]
	if s == nil || !s.InGame() {
		return false
	}
	d := Damage{Victim: s, Attacker: attacker, Amount: amount, Health: health}
	if attacker != nil {
		d.AttackerSession = m.sessions[attacker.Name()]
	}
	return m.bus.Publish(event.Damage, d).Cancelled()
}

// DispatchDeath raises a Death event for a seated player.
func (m *Manager) DispatchDeath(player string) bool {
	s := m.sessions[player]
	if s == nil || !s.InGame() {
		return false
	}
	return m.bus.Publish(event.Death, Death{Session: s}).Cancelled()
}

// Shutdown closes every arena, drops all sessions and empties the map
// catalog. Pending world loads are cancelled.
func (m *Manager) Shutdown() {
	m.cancel()
	for _, g := range m.Games() {
		g.close()
	}
	for _, name := range m.SessionNames() {
		m.RemoveSession(name, ReasonShutdown)
	}
	m.maps.Close()
	log.Info().Msg("match manager shut down")
}
