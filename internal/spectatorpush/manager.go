// Package spectatorpush announces match starts and results to chat webhooks.
package spectatorpush

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"arena-core/internal/event"
	"arena-core/internal/match"
	"arena-core/internal/spectatorpush/platforms"

	"github.com/rs/zerolog/log"
)

const listenerName = "spectator_push"

type Manager struct {
	cfg      Config
	router   Router
	adapters map[string]platforms.Adapter
	now      func() time.Time

	dispatchCh chan pushJob
	retryQ     *retryQueue
	breakers   *breakers
	done       chan struct{}

	mu      sync.Mutex
	started bool
}

func NewManager(cfg Config) *Manager {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	adapters := map[string]platforms.Adapter{
		"discord": platforms.NewDiscordAdapter(client),
		"feishu":  platforms.NewFeishuAdapter(client),
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 512
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.ConfigReload <= 0 {
		cfg.ConfigReload = time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	m := &Manager{
		cfg:        cfg,
		router:     Router{},
		adapters:   adapters,
		now:        time.Now,
		dispatchCh: make(chan pushJob, cfg.DispatchBuffer),
		breakers:   newBreakers(cfg.FailureThreshold, cfg.CircuitOpenDuration),
		done:       make(chan struct{}),
	}
	m.retryQ = newRetryQueue(m.dispatchCh, m.done)
	return m
}

// Subscribe listens for match starts and results. The listeners run on the
// tick goroutine, copy what they need and never block.
func (m *Manager) Subscribe(bus *event.Bus) error {
	if !m.cfg.Enabled {
		return nil
	}
	if err := bus.Subscribe(event.StatusChanged, listenerName, event.PriorityLow, m.onStatusChanged); err != nil {
		return err
	}
	return bus.Subscribe(event.GameOver, listenerName, event.PriorityLow, m.onGameOver)
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.ConfigPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go func() {
		<-ctx.Done()
		close(m.done)
	}()
	log.Info().Int("targets", len(m.currentTargets())).Int("workers", m.cfg.Workers).Msg("match push started")
	return nil
}

func (m *Manager) onStatusChanged(e *event.Event) {
	ev, ok := e.Payload.(match.StatusChanged)
	if !ok || ev.Arena == nil || ev.To != match.StatusRunning {
		return
	}
	n := m.notice("match_started", ev.Arena)
	for _, t := range ev.Arena.Teams() {
		if t.External() || t.IsEmpty() {
			continue
		}
		n.Teams = append(n.Teams, fmt.Sprintf("%s (%d)", t.Name(), t.Count()))
	}
	m.handle(n)
}

func (m *Manager) onGameOver(e *event.Event) {
	ev, ok := e.Payload.(match.GameOver)
	if !ok || ev.Arena == nil {
		return
	}
	n := m.notice("game_over", ev.Arena)
	if ev.Winner != nil {
		n.WinnerTeam = ev.Winner.Name()
		n.Winners = ev.Winner.MemberNames()
	}
	m.handle(n)
}

func (m *Manager) notice(kind string, a *match.Arena) Notice {
	n := Notice{
		EventType: kind,
		ServerTS:  m.now().UnixMilli(),
		ArenaID:   a.ID(),
		Players:   len(a.Sessions(false)),
	}
	if g := a.Game(); g != nil {
		n.Game = g.Name()
	}
	if mp := a.Map(); mp != nil {
		n.Map = mp.Name()
	}
	return n
}

func (m *Manager) handle(n Notice) {
	targets := m.router.MatchTargets(m.currentTargets(), n)
	if len(targets) == 0 {
		return
	}
	formatted, ok := FormatMessage(n)
	if !ok {
		return
	}
	for _, target := range targets {
		if !m.enqueue(pushJob{Target: target, Notice: n, Formatted: formatted}) {
			metricPushDroppedTotal.Add(1)
		}
	}
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case <-m.done:
		return false
	case m.dispatchCh <- job:
		metricPushQueuedTotal.Add(1)
		metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

func (m *Manager) currentTargets() []PushTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PushTarget, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) setTargets(targets []PushTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Targets = targets
}

// watchConfigLoop swaps in the targets file whenever its content changes. A
// file that fails to parse leaves the current targets in place.
func (m *Manager) watchConfigLoop(ctx context.Context) {
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.ConfigPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(m.cfg.ConfigReload)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			raw, err := os.ReadFile(m.cfg.ConfigPath)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				continue
			}
			nextRaw := strings.TrimSpace(string(raw))
			if nextRaw == lastRaw {
				continue
			}
			targets, err := parseTargetsJSON(nextRaw)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				log.Warn().Err(err).Str("path", m.cfg.ConfigPath).Msg("push targets reload failed")
				continue
			}
			m.setTargets(targets)
			lastRaw = nextRaw
			metricPushConfigReloadTotal.Add(1)
			log.Info().Int("targets", len(targets)).Msg("push targets reloaded")
		}
	}
}
