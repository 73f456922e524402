// Package mcp exposes the document corpus to MCP clients: agents can
// ask questions, run raw searches, and browse saved query traces.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/docchat/docchat/internal/trace"
	"github.com/docchat/docchat/internal/vectordb"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Asker answers one user question. The orchestrator implements it.
type Asker interface {
	HandleQuery(ctx context.Context, userMessage string) (string, error)
}

// Server wraps an MCP server that exposes corpus question-answering
// tools.
type Server struct {
	asker Asker
	store vectordb.VectorStore
	runs  *trace.Store // optional; list_traces errors without it
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(asker Asker, store vectordb.VectorStore, runs *trace.Store) *Server {
	s := &Server{
		asker: asker,
		store: store,
		runs:  runs,
	}

	s.mcp = server.NewMCPServer(
		"docchat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askDocumentsTool, s.handleAskDocuments)
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(listTracesTool, s.handleListTraces)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
