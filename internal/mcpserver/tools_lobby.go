package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func clampPagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Server) registerLobbyTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_games",
			mcp.WithDescription("List game modes with their arena counts"),
		),
		s.handleListGames,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_arenas",
			mcp.WithDescription("List the arenas of a game with status, free slots and teams"),
			mcp.WithString("game", mcp.Required(), mcp.Description("Game name")),
		),
		s.handleListArenas,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_arena",
			mcp.WithDescription("Get one arena by id"),
			mcp.WithString("arena_id", mcp.Required(), mcp.Description("Arena id")),
		),
		s.handleGetArena,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_matches",
			mcp.WithDescription("List finished matches, newest first"),
			mcp.WithString("game", mcp.Description("Optional game filter")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 20, max 100")),
			mcp.WithNumber("offset", mcp.Description("Page offset, default 0")),
		),
		s.handleListMatches,
	)
}

func (s *Server) handleListGames(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.publicSvc.Games(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleListArenas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	game, err := request.RequireString("game")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.publicSvc.Arenas(ctx, game)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetArena(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arenaID, err := request.RequireString("arena_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.publicSvc.Arena(ctx, arenaID)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleListMatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, offset := clampPagination(request.GetInt("limit", defaultPageLimit), request.GetInt("offset", 0))
	resp, err := s.publicSvc.Matches(ctx, request.GetString("game", ""), limit, offset)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}
