package match

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid_arena_config")
	ErrInvalidTeamSize  = errors.New("invalid_team_size")
	ErrInvalidPolicy    = errors.New("invalid_seating_policy")
	ErrDuplicateTeam    = errors.New("duplicate_team")
	ErrForeignTeam      = errors.New("team_bound_to_other_arena")
	ErrTeamLimit        = errors.New("team_limit_reached")
	ErrArenaRunning     = errors.New("arena_running")
	ErrNoMap            = errors.New("arena_has_no_map")
	ErrMapWhileRunning  = errors.New("map_change_while_running")
	ErrCrossArena       = errors.New("cross_arena_membership")
	ErrArenaNotJoinable = errors.New("arena_not_joinable")
	ErrSeatingFailed    = errors.New("seating_failed")
	ErrPartyDoesNotFit  = errors.New("party_does_not_fit")
	ErrNotPartyMember   = errors.New("not_party_member")
	ErrDuplicateArena   = errors.New("duplicate_arena")
	ErrDuplicateGame    = errors.New("duplicate_game")
	ErrGameNotFound     = errors.New("game_not_found")
	ErrArenaNotFound    = errors.New("arena_not_found")
	ErrMapNotFound      = errors.New("map_not_found")
	ErrAlreadyInSession = errors.New("already_in_session")
	ErrNoFreeArena      = errors.New("no_free_arena")
)
