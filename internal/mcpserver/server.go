// Package mcpserver exposes room orchestration as MCP tools so agent
// runtimes can create, join, and play rooms without speaking the websocket
// protocol. Stateless streamable HTTP, mounted at /mcp.
package mcpserver

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Fize/vbrpg-sub001/internal/session"
)

type Server struct {
	coord *session.Coordinator

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(coord *session.Coordinator) *Server {
	mcpSrv := server.NewMCPServer(
		"tabletop-rooms",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)
	s := &Server{
		coord:      coord,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerRoomTools()
	s.registerPlayTools()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}
