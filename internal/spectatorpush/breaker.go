package spectatorpush

import (
	"sync"
	"time"
)

// breakers trips a target after threshold consecutive failures and keeps it
// open for cooldown. Targets are keyed by targetKey.
type breakers struct {
	threshold int
	cooldown  time.Duration

	mu    sync.Mutex
	state map[string]*breakerState
}

type breakerState struct {
	failures  int
	openUntil time.Time
}

func newBreakers(threshold int, cooldown time.Duration) *breakers {
	return &breakers{threshold: threshold, cooldown: cooldown, state: map[string]*breakerState{}}
}

func (b *breakers) allow(key string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state[key]
	return s == nil || !now.Before(s.openUntil)
}

// fail records a failure and reports whether it opened the circuit.
func (b *breakers) fail(key string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state[key]
	if s == nil {
		s = &breakerState{}
		b.state[key] = s
	}
	s.failures++
	if s.failures < b.threshold {
		return false
	}
	s.failures = 0
	s.openUntil = now.Add(b.cooldown)
	return true
}

func (b *breakers) succeed(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.state, key)
}

func (b *breakers) failures(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s := b.state[key]; s != nil {
		return s.failures
	}
	return 0
}
