// Package results persists finished matches without blocking the tick
// goroutine: a GameOver listener snapshots the arena and hands the result to
// background workers that write it to the store.
package results

import (
	"context"
	"sync"
	"time"

	"arena-core/internal/event"
	"arena-core/internal/match"
	"arena-core/internal/store"

	"github.com/rs/zerolog/log"
)

const listenerName = "results:writer"

// Sink is where results end up. *store.Store implements it.
type Sink interface {
	RecordMatch(ctx context.Context, r store.MatchResult) (string, error)
}

type Config struct {
	QueueSize    int
	Workers      int
	RetryMax     int
	RetryBase    time.Duration
	WriteTimeout time.Duration
}

type job struct {
	result  store.MatchResult
	attempt int
}

type Writer struct {
	sink Sink
	cfg  Config

	jobs chan job
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewWriter(sink Sink, cfg Config) *Writer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Writer{
		sink: sink,
		cfg:  cfg,
		jobs: make(chan job, cfg.QueueSize),
		done: make(chan struct{}),
	}
}

// Subscribe records every GameOver published on bus.
func (w *Writer) Subscribe(bus *event.Bus) error {
	return bus.Subscribe(event.GameOver, listenerName, event.PriorityLow, w.onGameOver)
}

func (w *Writer) onGameOver(e *event.Event) {
	ev, ok := e.Payload.(match.GameOver)
	if !ok || ev.Arena == nil {
		return
	}
	w.Enqueue(Snapshot(ev))
}

// Snapshot copies what is worth keeping from a GameOver while the arena still
// holds its players and winner.
func Snapshot(ev match.GameOver) store.MatchResult {
	a := ev.Arena
	r := store.MatchResult{
		ArenaID: a.ID(),
		Players: len(a.Sessions(false)),
		Winners: []string{},
	}
	if g := a.Game(); g != nil {
		r.Game = g.Name()
		r.EndedAt = g.Manager().Now().UTC()
	}
	if m := a.Map(); m != nil {
		r.MapName = m.Name()
	}
	if ev.Winner != nil {
		r.WinnerTeam = ev.Winner.Name()
		r.Winners = ev.Winner.MemberNames()
	}
	return r
}

// Enqueue hands r to the workers. It never blocks; when the queue is full
// the result is dropped and counted.
func (w *Writer) Enqueue(r store.MatchResult) bool {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		metricDroppedTotal.Add(1)
		return false
	}
	select {
	case w.jobs <- job{result: r}:
		metricQueuedTotal.Add(1)
		metricQueueLen.Set(int64(len(w.jobs)))
		return true
	default:
		metricDroppedTotal.Add(1)
		log.Warn().Str("arena_id", r.ArenaID).Str("game", r.Game).Msg("result queue full; match result dropped")
		return false
	}
}

func (w *Writer) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.worker(ctx)
		}()
	}
}

// Close stops accepting results, writes what is still queued and waits for
// the workers, or for ctx.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
	w.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			w.drain(ctx)
			return
		case j := <-w.jobs:
			metricQueueLen.Set(int64(len(w.jobs)))
			w.process(ctx, j)
		}
	}
}

func (w *Writer) drain(ctx context.Context) {
	for {
		select {
		case j := <-w.jobs:
			j.attempt = w.cfg.RetryMax
			w.process(ctx, j)
		default:
			return
		}
	}
}

func (w *Writer) process(ctx context.Context, j job) {
	wctx, cancel := context.WithTimeout(ctx, w.cfg.WriteTimeout)
	id, err := w.sink.RecordMatch(wctx, j.result)
	cancel()
	if err == nil {
		metricWrittenTotal.Add(1)
		log.Debug().Str("match_id", id).Str("arena_id", j.result.ArenaID).Str("game", j.result.Game).Msg("match result stored")
		return
	}
	metricFailedTotal.Add(1)
	if j.attempt >= w.cfg.RetryMax {
		log.Error().Err(err).Str("arena_id", j.result.ArenaID).Str("game", j.result.Game).Int("attempts", j.attempt+1).Msg("match result lost")
		return
	}
	j.attempt++
	metricRetryTotal.Add(1)
	delay := w.cfg.RetryBase * time.Duration(1<<(j.attempt-1))
	log.Warn().Err(err).Str("arena_id", j.result.ArenaID).Dur("retry_in", delay).Msg("store match result failed")
	w.retry(j, delay)
}

func (w *Writer) retry(j job, delay time.Duration) {
	time.AfterFunc(delay, func() {
		select {
		case <-w.done:
			metricDroppedTotal.Add(1)
		case w.jobs <- j:
			metricQueueLen.Set(int64(len(w.jobs)))
		}
	})
}
