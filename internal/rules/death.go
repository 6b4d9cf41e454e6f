package rules

import (
	"arena-core/internal/event"
	"arena-core/internal/match"
)

// QuitWhenDie removes a player's session when they die in a running match.
type QuitWhenDie struct{}

func (QuitWhenDie) Name() string             { return "quit_when_die" }
func (QuitWhenDie) Kind() event.Kind         { return event.Death }
func (QuitWhenDie) Priority() event.Priority { return event.PriorityNormal }

func (QuitWhenDie) Apply(m *match.Manager, e *event.Event) {
	s := e.Payload.(match.Death).Session
	if s.Arena().Is(match.StatusRunning) {
		m.RemoveSession(s.Name(), match.ReasonDied)
	}
}
