package match

import (
	"fmt"
	"runtime/debug"
	"time"

	"arena-core/internal/scheduler"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// shardSize is how many arenas one updater task ticks.
const shardSize = 5

type link struct {
	arenaID string
	expires time.Time
}

type shard struct {
	index     int
	handle    scheduler.Handle
	cancelled bool
}

// Game is a named game mode: an ordered set of arenas, the updater shards
// that tick them, and the player→arena links used for routing.
type Game struct {
	name    string
	manager *Manager
	log     zerolog.Logger

	arenas      []*Arena
	byID        map[string]*Arena
	quarantined map[string]bool

	links    map[string]link
	linkTask scheduler.Handle

	shards []*shard

	mapRotation []string
	nextMap     int
}

func newGame(m *Manager, name string) *Game {
	g := &Game{
		name:        name,
		manager:     m,
		log:         log.With().Str("game", name).Logger(),
		byID:        make(map[string]*Arena),
		quarantined: make(map[string]bool),
		links:       make(map[string]link),
	}
	g.linkTask = m.sched.ScheduleRepeating(g.expireLinks, m.updatePeriod, 0)
	return g
}

func (g *Game) Name() string           { return g.name }
func (g *Game) Manager() *Manager      { return g.manager }
func (g *Game) Len() int               { return len(g.arenas) }
func (g *Game) ShardCount() int        { return len(g.shards) }
func (g *Game) Arena(id string) *Arena { return g.byID[id] }

// Arenas returns the arenas in the order they were added.
func (g *Game) Arenas() []*Arena {
	return append([]*Arena(nil), g.arenas...)
}

func (g *Game) IsQuarantined(id string) bool { return g.quarantined[id] }

// AddArena registers a and makes sure an updater shard covers it.
func (g *Game) AddArena(a *Arena) error {
	if _, ok := g.byID[a.id]; ok || (a.game != nil && a.game != g) {
		return fmt.Errorf("%w: %s", ErrDuplicateArena, a.id)
	}
	a.game = g
	g.arenas = append(g.arenas, a)
	g.byID[a.id] = a
	metricArenasActive.Add(1)
	g.reconcileShards()
	return nil
}

// RemoveArena closes the arena, which also takes it out of the game.
func (g *Game) RemoveArena(id string) {
	if a, ok := g.byID[id]; ok {
		a.Close()
	}
}

func (g *Game) detach(a *Arena) {
	if _, ok := g.byID[a.id]; !ok {
		return
	}
	delete(g.byID, a.id)
	delete(g.quarantined, a.id)
	for i, cur := range g.arenas {
		if cur == a {
			g.arenas = append(g.arenas[:i], g.arenas[i+1:]...)
			break
		}
	}
	for player, l := range g.links {
		if l.arenaID == a.id {
			delete(g.links, player)
		}
	}
	metricArenasActive.Add(-1)
	g.reconcileShards()
}

// reconcileShards keeps exactly ceil(arenas/shardSize) updater tasks. Shard i
// starts i ticks late so shards spread across the update period.
func (g *Game) reconcileShards() {
	want := (len(g.arenas) + shardSize - 1) / shardSize
	for len(g.shards) < want {
		s := &shard{index: len(g.shards)}
		s.handle = g.manager.sched.ScheduleRepeating(func(int64) { g.runShard(s) }, g.manager.updatePeriod, int64(s.index)%g.manager.updatePeriod)
		g.shards = append(g.shards, s)
		g.log.Debug().Int("shard", s.index).Msg("updater shard started")
	}
	for len(g.shards) > want {
		g.stopShard(g.shards[len(g.shards)-1])
	}
}

func (g *Game) stopShard(s *shard) {
	if s.cancelled {
		return
	}
	s.cancelled = true
	g.manager.sched.Cancel(s.handle)
	for i, cur := range g.shards {
		if cur == s {
			g.shards = append(g.shards[:i], g.shards[i+1:]...)
			break
		}
	}
	g.log.Debug().Int("shard", s.index).Msg("updater shard stopped")
}

// runShard updates arenas [index*shardSize, index*shardSize+shardSize) by
// current position. A shard whose range is empty removes itself.
func (g *Game) runShard(s *shard) {
	if s.cancelled {
		return
	}
	start := s.index * shardSize
	if len(g.arenas) <= start {
		g.stopShard(s)
		return
	}
	end := min(start+shardSize, len(g.arenas))
	for _, a := range append([]*Arena(nil), g.arenas[start:end]...) {
		g.updateArena(a)
	}
}

func (g *Game) updateArena(a *Arena) {
	if g.quarantined[a.id] {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.quarantined[a.id] = true
			metricArenasQuarantined.Add(1)
			a.log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("arena update panicked; arena quarantined")
		}
	}()
	if err := a.Update(); err != nil {
		metricArenaUpdateErrors.Add(1)
		a.log.Error().Err(err).Str("status", a.status.String()).Msg("arena update failed")
	}
}

// Link routes player to arenaID until the link TTL passes.
func (g *Game) Link(player, arenaID string) {
	g.links[player] = link{arenaID: arenaID, expires: g.manager.now().Add(g.manager.linkTTL)}
}

func (g *Game) Unlink(player string) {
	delete(g.links, player)
}

func (g *Game) Linked(player string) (string, bool) {
	l, ok := g.links[player]
	return l.arenaID, ok
}

// Links returns player → arena id for every live link.
func (g *Game) Links() map[string]string {
	out := make(map[string]string, len(g.links))
	for p, l := range g.links {
		out[p] = l.arenaID
	}
	return out
}

// expireLinks drops links past their TTL along with any reservation the
// player still holds in the linked arena.
func (g *Game) expireLinks(int64) {
	now := g.manager.now()
	for player, l := range g.links {
		if now.Before(l.expires) {
			continue
		}
		delete(g.links, player)
		metricLinksExpired.Add(1)
		if a := g.byID[l.arenaID]; a != nil {
			for _, t := range a.teams {
				t.RemoveReservation(player)
			}
		}
		g.log.Debug().Str("player", player).Str("arena_id", l.arenaID).Msg("link expired")
	}
}

// GetFreeArena prefers the arena player is linked to, then the first arena
// in order that can seat them: a free playing slot for players, a spectator
// team for spectators.
func (g *Game) GetFreeArena(player string, status SessionStatus) *Arena {
	if l, ok := g.links[player]; ok {
		if a := g.byID[l.arenaID]; a != nil && !a.closed {
			return a
		}
	}
	for _, a := range g.arenas {
		if g.quarantined[a.id] {
			continue
		}
		if status == SessionSpectating {
			if a.acceptsSpectator(player) {
				return a
			}
		} else if a.PlayerSlots() > 0 {
			return a
		}
	}
	return nil
}

// SetMapRotation sets the catalog maps handed to arenas that are left
// without one.
func (g *Game) SetMapRotation(names []string) {
	g.mapRotation = append([]string(nil), names...)
	g.nextMap = 0
}

func (g *Game) MapRotation() []string {
	return append([]string(nil), g.mapRotation...)
}

func (g *Game) refillMap(a *Arena) {
	if len(g.mapRotation) == 0 {
		return
	}
	name := g.mapRotation[g.nextMap%len(g.mapRotation)]
	g.nextMap++
	if err := g.manager.AssignMap(a, name); err != nil {
		a.log.Warn().Err(err).Str("map", name).Msg("map rotation failed")
	}
}

func (g *Game) close() {
	for _, a := range g.Arenas() {
		a.Close()
	}
	for len(g.shards) > 0 {
		g.stopShard(g.shards[len(g.shards)-1])
	}
	g.manager.sched.Cancel(g.linkTask)
	g.links = make(map[string]link)
}
