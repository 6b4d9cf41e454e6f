package session

type JoinInput struct {
	Player      string   `json:"player"`
	Game        string   `json:"game"`
	Spectate    bool     `json:"spectate"`
	Team        string   `json:"team"`
	Party       []string `json:"party"`
	SameTeam    bool     `json:"same_team"`
	Permissions []string `json:"permissions"`
}

type MoveInput struct {
	Player   string `json:"player"`
	ArenaID  string `json:"arena_id"`
	Spectate bool   `json:"spectate"`
}

type DamageInput struct {
	Victim   string  `json:"victim"`
	Attacker string  `json:"attacker"`
	Amount   float64 `json:"amount"`
	Health   float64 `json:"health"`
}

type SessionItem struct {
	Player     string    `json:"player"`
	Game       string    `json:"game,omitempty"`
	ArenaID    string    `json:"arena_id,omitempty"`
	Team       string    `json:"team,omitempty"`
	Status     string    `json:"status"`
	PartyOwner string    `json:"party_owner,omitempty"`
	Messages   []Message `json:"messages,omitempty"`
}

type DamageResult struct {
	Victim    string `json:"victim"`
	Cancelled bool   `json:"cancelled"`
	// InSession is false when the victim left their session while the
	// damage was handled.
	InSession bool `json:"in_session"`
}
