package public

import "arena-core/internal/store"

type GamesResponse struct {
	Items []GameItem `json:"items"`
}

type GameItem struct {
	Name        string   `json:"name"`
	Arenas      int      `json:"arenas"`
	Shards      int      `json:"shards"`
	Quarantined int      `json:"quarantined"`
	Links       int      `json:"links"`
	MapRotation []string `json:"map_rotation"`
}

type ArenasResponse struct {
	Game  string      `json:"game"`
	Items []ArenaItem `json:"items"`
}

type ArenaItem struct {
	ArenaID     string     `json:"arena_id"`
	Game        string     `json:"game"`
	Status      string     `json:"status"`
	Countdown   int        `json:"countdown"`
	Joinable    bool       `json:"joinable"`
	Quarantined bool       `json:"quarantined"`
	FreeSlots   int        `json:"free_slots"`
	PlayerSlots int        `json:"player_slots"`
	MaxPlayers  int        `json:"max_players"`
	InGame      int        `json:"in_game"`
	Map         string     `json:"map,omitempty"`
	World       string     `json:"world,omitempty"`
	Teams       []TeamItem `json:"teams"`
}

type TeamItem struct {
	Name         string       `json:"name"`
	Color        string       `json:"color"`
	External     bool         `json:"external"`
	Size         int          `json:"size"`
	FreeSlots    int          `json:"free_slots"`
	Members      []MemberItem `json:"members"`
	Reservations []string     `json:"reservations"`
}

type MemberItem struct {
	Player string `json:"player"`
	Status string `json:"status"`
}

type MatchesResponse struct {
	Items  []store.MatchResult `json:"items"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}
