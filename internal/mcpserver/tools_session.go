package mcpserver

import (
	"context"

	appsession "arena-core/internal/app/session"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_game",
			mcp.WithDescription("Seat a player in the first arena of a game with room"),
			mcp.WithString("player", mcp.Required(), mcp.Description("Unique player name")),
			mcp.WithString("game", mcp.Required(), mcp.Description("Game name")),
			mcp.WithBoolean("spectate", mcp.Description("Join as a spectator")),
			mcp.WithString("team", mcp.Description("Preferred team, for games that let players choose")),
			mcp.WithArray("party", mcp.Description("Party members to bring along"), mcp.WithStringItems()),
			mcp.WithBoolean("same_team", mcp.Description("Reject the join unless the whole party fits on one team")),
		),
		s.handleJoinGame,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"leave_game",
			mcp.WithDescription("Take a player out of their arena"),
			mcp.WithString("player", mcp.Required(), mcp.Description("Player name")),
		),
		s.handleLeaveGame,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_session",
			mcp.WithDescription("Describe a player's session and hand over queued messages"),
			mcp.WithString("player", mcp.Required(), mcp.Description("Player name")),
		),
		s.handleGetSession,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"assign_map",
			mcp.WithDescription("Load a map into an arena that is not running"),
			mcp.WithString("arena_id", mcp.Required(), mcp.Description("Arena id")),
			mcp.WithString("map", mcp.Required(), mcp.Description("Map name from the catalog")),
		),
		s.handleAssignMap,
	)
}

func (s *Server) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	game, err := request.RequireString("game")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.sessionSvc.Join(ctx, appsession.JoinInput{
		Player:   player,
		Game:     game,
		Spectate: request.GetBool("spectate", false),
		Team:     request.GetString("team", ""),
		Party:    request.GetStringSlice("party", nil),
		SameTeam: request.GetBool("same_team", false),
	})
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleLeaveGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.sessionSvc.Leave(ctx, player); err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"ok": true, "player": player}), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	player, err := request.RequireString("player")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.sessionSvc.Get(ctx, player, true)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleAssignMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arenaID, err := request.RequireString("arena_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	mapName, err := request.RequireString("map")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	if err := s.sessionSvc.AssignMap(ctx, arenaID, mapName); err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"ok": true, "arena_id": arenaID, "map": mapName}), nil
}
