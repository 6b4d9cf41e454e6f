package match

import (
	"fmt"
	"slices"
)

// Party is a group of players that joins arenas together behind an owner.
// When the owner is seated, the others are linked to the same arena and, if
// possible, reserved slots on the owner's team.
type Party struct {
	manager   *Manager
	owner     string
	members   []string
	together  bool
	disbanded bool
}

func (p *Party) Owner() string         { return p.owner }
func (p *Party) Disbanded() bool       { return p.disbanded }
func (p *Party) RequireSameTeam() bool { return p.together }

// Members returns everyone except the owner, in the order they joined.
func (p *Party) Members() []string {
	return append([]string(nil), p.members...)
}

// Size counts the owner too.
func (p *Party) Size() int {
	if p.disbanded {
		return 0
	}
	return len(p.members) + 1
}

func (p *Party) Has(player string) bool {
	if p.disbanded {
		return false
	}
	return player == p.owner || slices.Contains(p.members, player)
}

// SetOwner hands ownership to an existing member; the old owner becomes a
// member.
func (p *Party) SetOwner(player string) error {
	i := slices.Index(p.members, player)
	if p.disbanded || i < 0 {
		return fmt.Errorf("%w: %s", ErrNotPartyMember, player)
	}
	p.members[i] = p.owner
	p.owner = player
	return nil
}

func (p *Party) Add(player string) {
	if p.disbanded || p.Has(player) {
		return
	}
	p.members = append(p.members, player)
	if s := p.manager.Session(player); s != nil && s.party == nil {
		s.party = p
	}
}

// Remove drops a member. Removing the owner disbands the party.
func (p *Party) Remove(player string) {
	if p.disbanded {
		return
	}
	if player == p.owner {
		p.Disband()
		return
	}
	i := slices.Index(p.members, player)
	if i < 0 {
		return
	}
	p.members = slices.Delete(p.members, i, i+1)
	if s := p.manager.Session(player); s != nil && s.party == p {
		s.party = nil
	}
}

// Disband clears the party from every session still pointing at it.
func (p *Party) Disband() {
	if p.disbanded {
		return
	}
	p.disbanded = true
	for _, name := range append([]string{p.owner}, p.members...) {
		if s := p.manager.Session(name); s != nil && s.party == p {
			s.party = nil
		}
	}
	p.members = nil
}
