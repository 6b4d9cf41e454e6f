package session

import "github.com/rs/zerolog/log"

const inboxSize = 64

type Message struct {
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Player is a remote client driven through the command API. Messages the
// arena sends it are kept in a bounded inbox until the client polls them.
// Like every core object it is only touched on the tick goroutine.
type Player struct {
	name  string
	perms map[string]bool
	inbox []Message
}

func NewPlayer(name string, perms ...string) *Player {
	p := &Player{name: name, perms: make(map[string]bool, len(perms))}
	for _, perm := range perms {
		p.perms[perm] = true
	}
	return p
}

func (p *Player) Name() string { return p.name }

func (p *Player) SendMessage(msg string) { p.push(Message{Kind: "message", Text: msg}) }
func (p *Player) SendTip(msg string)     { p.push(Message{Kind: "tip", Text: msg}) }

func (p *Player) SendPopup(msg, subtitle string) {
	p.push(Message{Kind: "popup", Text: msg, Subtitle: subtitle})
}

func (p *Player) HasPermission(perm string) bool { return p.perms[perm] }

// Drain returns and clears the inbox.
func (p *Player) Drain() []Message {
	out := p.inbox
	p.inbox = nil
	if out == nil {
		out = []Message{}
	}
	return out
}

func (p *Player) Pending() int { return len(p.inbox) }

func (p *Player) push(m Message) {
	log.Debug().Str("player", p.name).Str("kind", m.Kind).Str("text", m.Text).Msg("player message")
	if len(p.inbox) == inboxSize {
		copy(p.inbox, p.inbox[1:])
		p.inbox = p.inbox[:inboxSize-1]
	}
	p.inbox = append(p.inbox, m)
}
