package httptransport

import (
	"context"
	"errors"
	"net/http"

	"arena-core/internal/app/public"
	"arena-core/internal/app/session"
	"arena-core/internal/match"
	"arena-core/internal/scheduler"
	"arena-core/internal/store"
)

// MapCommandError turns a core or service error into a status and error code.
func MapCommandError(err error) (int, string) {
	switch {
	case errors.Is(err, public.ErrInvalidRequest), errors.Is(err, session.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, match.ErrGameNotFound):
		return http.StatusNotFound, "game_not_found"
	case errors.Is(err, match.ErrArenaNotFound):
		return http.StatusNotFound, "arena_not_found"
	case errors.Is(err, match.ErrMapNotFound):
		return http.StatusNotFound, "map_not_found"
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "match_not_found"
	case errors.Is(err, match.ErrAlreadyInSession):
		return http.StatusConflict, "already_in_session"
	case errors.Is(err, match.ErrNoFreeArena):
		return http.StatusConflict, "no_free_arena"
	case errors.Is(err, match.ErrPartyDoesNotFit):
		return http.StatusConflict, "party_does_not_fit"
	case errors.Is(err, match.ErrSeatingFailed):
		return http.StatusConflict, "seating_failed"
	case errors.Is(err, match.ErrMapWhileRunning):
		return http.StatusConflict, "map_change_while_running"
	case errors.Is(err, session.ErrArenaNotRunning):
		return http.StatusConflict, "arena_not_running"
	case errors.Is(err, match.ErrArenaNotJoinable):
		return http.StatusBadRequest, "arena_not_joinable"
	case errors.Is(err, session.ErrTeamChoiceNotAllowed):
		return http.StatusBadRequest, "team_choice_not_allowed"
	case errors.Is(err, public.ErrHistoryDisabled):
		return http.StatusServiceUnavailable, "history_disabled"
	case errors.Is(err, scheduler.ErrStopped):
		return http.StatusServiceUnavailable, "scheduler_stopped"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeCommandError(w http.ResponseWriter, err error) {
	status, code := MapCommandError(err)
	if status >= http.StatusInternalServerError {
		metricCommandErrors.Add(1)
	}
	WriteHTTPError(w, status, code)
}
