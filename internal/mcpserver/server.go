// Package mcpserver exposes the arena lobby as MCP tools over streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apppublic "arena-core/internal/app/public"
	appsession "arena-core/internal/app/session"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	publicSvc  *apppublic.Service
	sessionSvc *appsession.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(publicSvc *apppublic.Service, sessionSvc *appsession.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"arena-core",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		publicSvc:  publicSvc,
		sessionSvc: sessionSvc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerLobbyTools()
	s.registerSessionTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"arena://{arena_id}/state",
			"arena_state",
			mcp.WithTemplateDescription("Live state of one arena: status, countdown, teams and map"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			arenaID, ok := arenaFromURI(raw)
			if !ok {
				return nil, nil
			}
			state, err := s.publicSvc.Arena(ctx, arenaID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(state)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

func arenaFromURI(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "arena://") || !strings.HasSuffix(raw, "/state") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(raw, "arena://"), "/state")
	return id, id != ""
}
