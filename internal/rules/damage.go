package rules

import (
	"arena-core/internal/event"
	"arena-core/internal/match"
)

// NoDamage cancels all damage to seated players.
type NoDamage struct{}

func (NoDamage) Name() string             { return "no_damage" }
func (NoDamage) Kind() event.Kind         { return event.Damage }
func (NoDamage) Priority() event.Priority { return event.PriorityHigh }

func (NoDamage) Apply(_ *match.Manager, e *event.Event) {
	e.Cancel()
}

// NoTeamDamage cancels damage between members of the same team.
type NoTeamDamage struct{}

func (NoTeamDamage) Name() string             { return "no_team_damage" }
func (NoTeamDamage) Kind() event.Kind         { return event.Damage }
func (NoTeamDamage) Priority() event.Priority { return event.PriorityHigh }

func (NoTeamDamage) Apply(_ *match.Manager, e *event.Event) {
	d := e.Payload.(match.Damage)
	if e.Cancelled() || d.Attacker == nil {
		return
	}
	if team := d.Victim.Team(); team != nil && team.IsMember(d.Attacker.Name()) {
		e.Cancel()
	}
}

// NoExternalDamage only lets players of the same arena and status hurt each
// other. Players without a session need PermExternalDamage.
type NoExternalDamage struct{}

func (NoExternalDamage) Name() string             { return "no_external_damage" }
func (NoExternalDamage) Kind() event.Kind         { return event.Damage }
func (NoExternalDamage) Priority() event.Priority { return event.PriorityHigh }

func (NoExternalDamage) Apply(_ *match.Manager, e *event.Event) {
	d := e.Payload.(match.Damage)
	if d.Attacker == nil {
		return
	}
	as := d.AttackerSession
	if as == nil {
		if p, ok := d.Attacker.(Permissible); !ok || !p.HasPermission(PermExternalDamage) {
			e.Cancel()
		}
		return
	}
	if as.Arena() != d.Victim.Arena() || as.Status() != d.Victim.Status() {
		e.Cancel()
	}
}

// DamageOnlyWhenRunning cancels damage outside a running match.
type DamageOnlyWhenRunning struct{}

func (DamageOnlyWhenRunning) Name() string             { return "damage_only_when_running" }
func (DamageOnlyWhenRunning) Kind() event.Kind         { return event.Damage }
func (DamageOnlyWhenRunning) Priority() event.Priority { return event.PriorityHigh }

func (DamageOnlyWhenRunning) Apply(_ *match.Manager, e *event.Event) {
	if e.Cancelled() {
		return
	}
	d := e.Payload.(match.Damage)
	if !d.Victim.Arena().Is(match.StatusRunning) {
		e.Cancel()
	}
}

// CleanDeath turns lethal damage into a Death event while the match runs, and
// cancels the damage either way so the player never really dies. It runs
// after the blocking rules and ignores damage they already cancelled.
type CleanDeath struct{}

func (CleanDeath) Name() string             { return "clean_death" }
func (CleanDeath) Kind() event.Kind         { return event.Damage }
func (CleanDeath) Priority() event.Priority { return event.PriorityLow }

func (CleanDeath) Apply(m *match.Manager, e *event.Event) {
	d := e.Payload.(match.Damage)
	if e.Cancelled() || !d.Lethal() {
		return
	}
	if d.Victim.Arena().Is(match.StatusRunning) {
		m.DispatchDeath(d.Victim.Name())
	}
	e.Cancel()
}
