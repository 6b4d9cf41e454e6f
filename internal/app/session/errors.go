package session

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrSessionNotFound      = errors.New("session_not_found")
	ErrArenaNotRunning      = errors.New("arena_not_running")
	ErrTeamChoiceNotAllowed = errors.New("team_choice_not_allowed")
)
