package match

import (
	"fmt"
	"time"

	"arena-core/internal/event"
	"arena-core/internal/ids"
	"arena-core/internal/maps"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Arena is one match instance. It cycles Waiting → Beginning → Running →
// Resetting → Waiting, one step of countdown per Update.
type Arena struct {
	id     string
	game   *Game
	cfg    Config
	policy Policy
	log    zerolog.Logger

	teams      []*Team
	teamIdx    map[string]*Team
	teamsLimit int
	maxPlayers int

	status    Status
	countdown int
	joinable  bool
	closed    bool
	winner    *Team
	gameMap   *maps.Map
}

// NewArena builds an arena from cfg, creates its teams in declaration order
// and registers it with the game. The arena starts Waiting and joinable.
func (g *Game) NewArena(cfg Config, policy Policy) (*Arena, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: nil policy", ErrInvalidPolicy)
	}
	id := ids.New()
	a := &Arena{
		id:      id,
		game:    g,
		cfg:     cfg.clone(),
		policy:  policy,
		log:     log.With().Str("game", g.name).Str("arena_id", id).Logger(),
		teamIdx: make(map[string]*Team, len(cfg.Teams)),
		status:  StatusResetting,
	}
	for _, spec := range a.cfg.Teams {
		size := a.cfg.TeamSize
		if spec.External {
			size = a.cfg.spectatorSlots()
		} else {
			a.teamsLimit++
		}
		t, err := NewTeam(spec.Name, spec.Color, spec.External, size)
		if err != nil {
			return nil, err
		}
		if err := a.AddTeam(t, false); err != nil {
			return nil, err
		}
	}
	a.maxPlayers = a.teamsLimit * a.cfg.TeamSize
	a.Reset()
	if err := g.AddArena(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Arena) ID() string             { return a.id }
func (a *Arena) Game() *Game            { return a.game }
func (a *Arena) Config() Config         { return a.cfg.clone() }
func (a *Arena) Policy() Policy         { return a.policy }
func (a *Arena) Status() Status         { return a.status }
func (a *Arena) Is(s Status) bool       { return a.status == s }
func (a *Arena) Countdown() int         { return a.countdown }
func (a *Arena) IsJoinable() bool       { return a.joinable && !a.closed }
func (a *Arena) IsClosed() bool         { return a.closed }
func (a *Arena) Map() *maps.Map         { return a.gameMap }
func (a *Arena) MaxPlayers() int        { return a.maxPlayers }
func (a *Arena) TeamsLimit() int        { return a.teamsLimit }
func (a *Arena) Team(name string) *Team { return a.teamIdx[name] }

// Winner is only set while GameOver listeners run.
func (a *Arena) Winner() *Team { return a.winner }

// Teams returns the teams in declaration order.
func (a *Arena) Teams() []*Team {
	return append([]*Team(nil), a.teams...)
}

// AddTeam attaches t. Playing teams are limited to the configured count and
// cannot be added mid-match unless force is set.
func (a *Arena) AddTeam(t *Team, force bool) error {
	if _, ok := a.teamIdx[t.name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTeam, t.name)
	}
	if t.arena != nil && t.arena != a {
		return fmt.Errorf("%w: %s", ErrForeignTeam, t.name)
	}
	if !t.external {
		if a.countTeams(false) >= a.teamsLimit {
			return fmt.Errorf("%w: %d playing teams", ErrTeamLimit, a.teamsLimit)
		}
		if a.status == StatusRunning && !force {
			return fmt.Errorf("%w: cannot add team %s", ErrArenaRunning, t.name)
		}
	}
	t.arena = a
	a.teams = append(a.teams, t)
	a.teamIdx[t.name] = t
	return nil
}

// RemoveTeam evicts a team and its members. Playing teams stay put while the
// match runs. Unknown names are ignored.
func (a *Arena) RemoveTeam(name string) error {
	t, ok := a.teamIdx[name]
	if !ok {
		return nil
	}
	if !t.external && a.status == StatusRunning {
		return fmt.Errorf("%w: cannot remove team %s", ErrArenaRunning, name)
	}
	t.CleanUp(ReasonTeamRemoved)
	delete(a.teamIdx, name)
	for i, cur := range a.teams {
		if cur == t {
			a.teams = append(a.teams[:i], a.teams[i+1:]...)
			break
		}
	}
	t.arena = nil
	return nil
}

func (a *Arena) countTeams(external bool) int {
	n := 0
	for _, t := range a.teams {
		if t.external == external {
			n++
		}
	}
	return n
}

// FindFreeTeam returns the first team, in declaration order, that holds a
// reservation for player; failing that, the first with room. With mates the
// team must fit the player and all of them.
func (a *Arena) FindFreeTeam(player string, external bool, mates []string) *Team {
	for _, t := range a.teams {
		if t.external != external || !t.HasReservation(player) {
			continue
		}
		if len(mates) == 0 || t.CanReserveSpace(len(mates)) {
			return t
		}
	}
	need := len(mates) + 1
	for _, t := range a.teams {
		if t.external == external && t.CanReserveSpace(need) {
			return t
		}
	}
	return nil
}

// AddSpectator seats a spectating session on team, or on any external team
// with room when team is nil. It undoes its own reservation on failure.
func (a *Arena) AddSpectator(s *Session, team *Team) bool {
	reserved := false
	if team == nil {
		team = a.FindFreeTeam(s.Name(), true, nil)
		if team == nil {
			return false
		}
		if !team.HasReservation(s.Name()) {
			if !team.AddReservation(s.Name()) {
				return false
			}
			reserved = true
		}
	}
	if a.teamIdx[team.name] != team {
		if err := a.AddTeam(team, false); err != nil {
			a.log.Debug().Err(err).Str("team", team.name).Msg("spectator team rejected")
			return false
		}
	}
	ok, err := team.AddMember(s)
	if err != nil || !ok {
		if reserved {
			team.RemoveReservation(s.Name())
		}
		return false
	}
	return true
}

func (a *Arena) seat(s *Session) (*Team, bool) {
	if s.status == SessionSpectating {
		if !a.AddSpectator(s, nil) {
			return nil, false
		}
		return s.team, true
	}
	team, ok := a.policy.SeatSession(a, s)
	if !ok || team == nil || team.arena != a {
		return nil, false
	}
	added, err := team.AddMember(s)
	if err != nil {
		a.log.Warn().Err(err).Str("player", s.Name()).Msg("policy picked an unusable team")
		return nil, false
	}
	return team, added
}

// FreeSlots sums the free slots of every team, spectator teams included.
// Non-joinable arenas report 0.
func (a *Arena) FreeSlots() int {
	if !a.IsJoinable() {
		return 0
	}
	n := 0
	for _, t := range a.teams {
		n += t.FreeSlots()
	}
	return n
}

// PlayerSlots is FreeSlots without the external teams: how many more players
// can join to play.
func (a *Arena) PlayerSlots() int {
	if !a.IsJoinable() {
		return 0
	}
	n := 0
	for _, t := range a.teams {
		if !t.external {
			n += t.FreeSlots()
		}
	}
	return n
}

// acceptsSpectator reports whether player could be seated to watch.
func (a *Arena) acceptsSpectator(player string) bool {
	return !a.closed && a.FindFreeTeam(player, true, nil) != nil
}

func (a *Arena) heldReservations(player string) map[*Team]time.Time {
	held := make(map[*Team]time.Time)
	for _, t := range a.teams {
		if at, ok := t.reservations[player]; ok {
			held[t] = at
		}
	}
	return held
}

// restoreReservations puts back what heldReservations saw, skipping teams
// that left the arena or already seat the player.
func (a *Arena) restoreReservations(player string, held map[*Team]time.Time) {
	for t, at := range held {
		if t.arena == a && !t.IsMember(player) {
			t.reservations[player] = at
		}
	}
}

// Sessions lists seated sessions in team order.
func (a *Arena) Sessions(includeExternal bool) []*Session {
	var out []*Session
	for _, t := range a.teams {
		if t.external && !includeExternal {
			continue
		}
		out = append(out, t.Members()...)
	}
	return out
}

// CountInGeneral is the number of alive players across all teams.
func (a *Arena) CountInGeneral() int {
	n := 0
	for _, t := range a.teams {
		n += t.CountInGame()
	}
	return n
}

// RemainingTeams lists the teams with players still in game.
func (a *Arena) RemainingTeams() []*Team {
	var out []*Team
	for _, t := range a.teams {
		if t.CountInGame() > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Message broadcasts to every team.
func (a *Arena) Message(msg string, inGameOnly bool) {
	for _, t := range a.teams {
		t.Message(msg, inGameOnly)
	}
}

// Update advances the arena by one step. The only error is a match that
// cannot start for lack of a map; the arena stays in Beginning and retries.
func (a *Arena) Update() error {
	if a.closed {
		return nil
	}
	if a.countdown < 0 {
		a.countdown = 0
	}
	switch a.status {
	case StatusWaiting:
		if a.CountInGeneral() >= a.cfg.PlayersCountToStart {
			return a.setStatus(StatusBeginning)
		}
	case StatusBeginning:
		return a.updateBeginning()
	case StatusRunning:
		return a.updateRunning()
	case StatusResetting:
		expired := a.countdown == 0
		a.countdown--
		if expired {
			a.Reset()
		}
	}
	return nil
}

func (a *Arena) updateBeginning() error {
	count := a.CountInGeneral()
	if count < a.cfg.PlayersCountToStart {
		a.countdown = a.cfg.CountdownToStart
		return a.setStatus(StatusWaiting)
	}
	if count >= a.maxPlayers && a.countdown > a.cfg.CountdownArenaFull {
		a.countdown = a.cfg.CountdownArenaFull
	}
	expired := a.countdown == 0
	a.countdown--
	if expired {
		return a.setStatus(StatusRunning)
	}
	return nil
}

func (a *Arena) updateRunning() error {
	expired := a.countdown == 0
	a.countdown--
	if !expired {
		return nil
	}
	a.countdown = a.cfg.CountdownToReset
	if err := a.setStatus(StatusResetting); err != nil {
		return err
	}
	a.gameOver()
	return nil
}

func (a *Arena) setStatus(to Status) error {
	if to == StatusRunning && a.gameMap == nil {
		return fmt.Errorf("%w: arena %s", ErrNoMap, a.id)
	}
	from := a.status
	a.status = to
	switch to {
	case StatusRunning:
		a.countdown = a.cfg.Timeout
		a.joinable = false
		if h, ok := a.policy.(Starter); ok {
			h.OnStart(a)
		}
	case StatusResetting:
		a.joinable = false
		if h, ok := a.policy.(Ender); ok {
			h.OnEnd(a)
		}
	}
	a.log.Info().Str("from", from.String()).Str("status", to.String()).Int("countdown", a.countdown).Msg("arena status changed")
	a.publish(event.StatusChanged, StatusChanged{Arena: a, From: from, To: to})
	return nil
}

func (a *Arena) gameOver() {
	a.winner = a.policy.DetermineWinner(a, a.RemainingTeams())
	winner := ""
	if a.winner != nil {
		winner = a.winner.name
	}
	metricGameOverTotal.Add(1)
	a.log.Info().Str("team", winner).Msg("game over")
	a.publish(event.GameOver, GameOver{Arena: a, Winner: a.winner})
	a.winner = nil
}

// Finish ends a running match early: the next Update moves it to Resetting.
func (a *Arena) Finish() {
	if a.status == StatusRunning {
		a.countdown = 0
	}
}

// Reset clears the arena for the next match. It only acts from Resetting.
func (a *Arena) Reset() bool {
	if a.status != StatusResetting {
		return false
	}
	for _, t := range a.Teams() {
		t.CleanUp(ReasonArenaReset)
	}
	if a.cfg.AutoMapReset {
		a.releaseMap()
	}
	a.winner = nil
	a.countdown = a.cfg.CountdownToStart
	a.joinable = !a.closed
	from := a.status
	a.status = StatusWaiting
	a.publish(event.StatusChanged, StatusChanged{Arena: a, From: from, To: StatusWaiting})
	if a.gameMap == nil && a.game != nil {
		a.game.refillMap(a)
	}
	return true
}

// SetMap binds m, releasing the previous map and its world. The map cannot
// change while a match runs.
func (a *Arena) SetMap(m *maps.Map) error {
	if a.status == StatusRunning {
		return fmt.Errorf("%w: arena %s", ErrMapWhileRunning, a.id)
	}
	if a.gameMap == m {
		return nil
	}
	a.releaseMap()
	a.gameMap = m
	if m != nil {
		a.log.Info().Str("map", m.Name()).Msg("map assigned")
		a.publish(event.MapChanged, MapChanged{Arena: a, Map: m})
	}
	return nil
}

func (a *Arena) releaseMap() {
	if a.gameMap == nil {
		return
	}
	if h := a.gameMap.BindWorld(nil); h != nil {
		a.unloadWorld(h)
	}
	a.gameMap = nil
}

func (a *Arena) unloadWorld(h maps.WorldHandle) {
	m := a.manager()
	if m == nil || m.worlds == nil {
		return
	}
	if err := m.worlds.UnloadWorld(h); err != nil {
		a.log.Warn().Err(err).Str("world", h.Name()).Msg("unload world failed")
	}
}

// Close evicts everyone, releases the map and removes the arena from its
// game. Closing twice is a no-op.
func (a *Arena) Close() {
	if a.closed {
		return
	}
	a.closed = true
	a.joinable = false
	for _, t := range a.Teams() {
		t.CleanUp(ReasonArenaClosed)
	}
	a.releaseMap()
	if a.game != nil {
		a.game.detach(a)
	}
	a.log.Info().Msg("arena closed")
}

func (a *Arena) manager() *Manager {
	if a.game == nil {
		return nil
	}
	return a.game.manager
}

func (a *Arena) publish(kind event.Kind, payload any) *event.Event {
	m := a.manager()
	if m == nil {
		return &event.Event{Kind: kind, Payload: payload}
	}
	return m.bus.Publish(kind, payload)
}
