package store

import "time"

// MatchResult is one finished match. WinnerTeam is empty on a draw.
type MatchResult struct {
	ID         string    `json:"id"`
	Game       string    `json:"game"`
	ArenaID    string    `json:"arena_id"`
	MapName    string    `json:"map_name,omitempty"`
	WinnerTeam string    `json:"winner_team,omitempty"`
	Winners    []string  `json:"winners"`
	Players    int       `json:"players"`
	EndedAt    time.Time `json:"ended_at"`
}

type MatchStats struct {
	Game    string `json:"game"`
	Matches int64  `json:"matches"`
	Draws   int64  `json:"draws"`
}
