package mcpserver

import (
	"context"
	"errors"
	"fmt"

	apppublic "arena-core/internal/app/public"
	appsession "arena-core/internal/app/session"
	"arena-core/internal/match"
	"arena-core/internal/scheduler"
	"arena-core/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func mapDomainError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return toolError("internal_error", "unknown error")
	case errors.Is(err, apppublic.ErrInvalidRequest), errors.Is(err, appsession.ErrInvalidRequest):
		return toolError("invalid_request", err.Error())
	case errors.Is(err, match.ErrGameNotFound):
		return toolError("game_not_found", err.Error())
	case errors.Is(err, match.ErrArenaNotFound):
		return toolError("arena_not_found", err.Error())
	case errors.Is(err, match.ErrMapNotFound):
		return toolError("map_not_found", err.Error())
	case errors.Is(err, appsession.ErrSessionNotFound):
		return toolError("session_not_found", err.Error())
	case errors.Is(err, store.ErrNotFound):
		return toolError("not_found", err.Error())
	case errors.Is(err, match.ErrAlreadyInSession):
		return toolError("already_in_session", err.Error())
	case errors.Is(err, match.ErrNoFreeArena):
		return toolError("no_free_arena", err.Error())
	case errors.Is(err, match.ErrPartyDoesNotFit):
		return toolError("party_does_not_fit", err.Error())
	case errors.Is(err, match.ErrArenaNotJoinable):
		return toolError("arena_not_joinable", err.Error())
	case errors.Is(err, match.ErrMapWhileRunning):
		return toolError("map_change_while_running", err.Error())
	case errors.Is(err, appsession.ErrArenaNotRunning):
		return toolError("arena_not_running", err.Error())
	case errors.Is(err, appsession.ErrTeamChoiceNotAllowed):
		return toolError("team_choice_not_allowed", err.Error())
	case errors.Is(err, apppublic.ErrHistoryDisabled):
		return toolError("history_disabled", err.Error())
	case errors.Is(err, scheduler.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return toolError("unavailable", err.Error())
	default:
		return toolError("internal_error", err.Error())
	}
}
