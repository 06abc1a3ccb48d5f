// Package mcp exposes Overseer's observation surface to MCP chat clients:
// read-only tools over sessions, agents, tasks, and project progress.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolapsis/overseer/internal/store"
)

// Deps holds shared dependencies injected into MCP handlers.
type Deps struct {
	Store   store.Store
	Version string
}

// NewServer creates and configures the MCP server with all tools registered.
func NewServer(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"Overseer",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	registerTools(s, deps)

	return s
}
