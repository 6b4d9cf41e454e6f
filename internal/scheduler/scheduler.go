// Package scheduler runs repeating tasks and posted work on a single logical
// tick goroutine. Everything that mutates match state goes through it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("scheduler_stopped")

// Handle identifies a scheduled task. The zero Handle is never issued.
type Handle int64

type task struct {
	handle Handle
	fn     func(tick int64)
	period int64
	next   int64
}

type Scheduler struct {
	tickRate int

	mu      sync.Mutex
	tick    int64
	lastID  Handle
	tasks   map[Handle]*task
	order   []Handle
	posted  []func()
	running bool
	stopped chan struct{}
	stopOne sync.Once
	wake    chan struct{}
}

func New(tickRate int) *Scheduler {
	if tickRate < 1 {
		tickRate = 20
	}
	return &Scheduler{
		tickRate: tickRate,
		tasks:    make(map[Handle]*task),
		stopped:  make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
}

func (s *Scheduler) TickRate() int { return s.tickRate }

// Current returns the number of ticks processed so far.
func (s *Scheduler) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Len returns the number of live repeating tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ScheduleRepeating registers fn to run every period ticks. The first run
// happens delay+1 ticks from now, so delay 0 means "on the next tick".
func (s *Scheduler) ScheduleRepeating(fn func(tick int64), period, delay int64) Handle {
	if period < 1 {
		period = 1
	}
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	h := s.lastID
	s.tasks[h] = &task{handle: h, fn: fn, period: period, next: s.tick + 1 + delay}
	s.order = append(s.order, h)
	return h
}

// Cancel stops a task. Unknown or already cancelled handles are ignored, and a
// task may cancel itself from inside its own callback.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[h]; !ok {
		return
	}
	delete(s.tasks, h)
	for i, id := range s.order {
		if id == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Post queues fn to run on the tick goroutine before the next tick's tasks.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the tick goroutine and waits for it to finish.
func (s *Scheduler) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	s.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-s.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick drains posted work and then runs every task due on the new tick.
// Run calls it from the ticker; tests call it directly.
func (s *Scheduler) Tick() {
	s.drainPosted()

	s.mu.Lock()
	s.tick++
	now := s.tick
	due := make([]*task, 0, len(s.order))
	for _, h := range s.order {
		t := s.tasks[h]
		if t.next <= now {
			due = append(due, t)
			t.next = now + t.period
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		if !s.alive(t.handle) {
			continue
		}
		s.safeRun(fmt.Sprintf("task-%d", t.handle), func() { t.fn(now) })
	}
}

// Run ticks at the configured rate until ctx is cancelled. Posted work is
// picked up between ticks as soon as it arrives.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.stopOne.Do(func() { close(s.stopped) })
	}()

	ticker := time.NewTicker(time.Second / time.Duration(s.tickRate))
	defer ticker.Stop()
	log.Info().Int("tick_rate", s.tickRate).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.drainPosted()
			log.Info().Int64("tick", s.Current()).Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick()
		case <-s.wake:
			s.drainPosted()
		}
	}
}

func (s *Scheduler) drainPosted() {
	for {
		s.mu.Lock()
		posted := s.posted
		s.posted = nil
		s.mu.Unlock()
		if len(posted) == 0 {
			return
		}
		for _, fn := range posted {
			s.safeRun("posted", fn)
		}
	}
}

func (s *Scheduler) alive(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[h]
	return ok
}

func (s *Scheduler) safeRun(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("task", name).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("scheduled work panicked")
		}
	}()
	fn()
}
