package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/mcp/tools"
)

// Server wraps the mcp-go MCPServer with the read-only orderdesk tools.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// ToolDeps bundles what the registered tools need.
type ToolDeps struct {
	Health    *tools.HealthToolDeps
	Selection *tools.SelectionToolDeps
	Orders    *tools.OrderToolDeps
}

// NewServer creates a new MCP server instance. Tool calls are logged through
// a ToolCallLogger.
func NewServer(name, version string, logger *zap.Logger, opts ...server.ServerOption) *Server {
	opts = append([]server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithHooks(NewToolCallLogger(logger).Hooks()),
	}, opts...)

	return &Server{
		mcp:    server.NewMCPServer(name, version, opts...),
		logger: logger,
	}
}

// RegisterTools registers every tool whose dependencies are present.
func (s *Server) RegisterTools(deps *ToolDeps) {
	if deps.Health != nil {
		tools.RegisterHealthTool(s.mcp, deps.Health)
	}
	if deps.Selection != nil {
		tools.RegisterSelectionTools(s.mcp, deps.Selection)
	}
	if deps.Orders != nil {
		tools.RegisterOrderTools(s.mcp, deps.Orders)
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}
