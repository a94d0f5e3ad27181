package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/otto-pm/repoindex/internal/pipeline"
	"github.com/otto-pm/repoindex/internal/searcher"
)

const (
	ServerName    = "repoindex"
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp      *server.MCPServer
	pipeline *pipeline.Pipeline
	searcher *searcher.Searcher
	log      zerolog.Logger
}

// NewServer assembles the MCP surface over an already-wired pipeline
// and searcher.
func NewServer(p *pipeline.Pipeline, s *searcher.Searcher, log zerolog.Logger) *Server {
	srv := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		pipeline: p,
		searcher: s,
		log:      log,
	}
	srv.registerTools()
	return srv
}

// Serve runs the MCP server on stdio until the client disconnects.
func (s *Server) Serve(_ context.Context) error {
	s.log.Info().Str("server", ServerName).Str("version", ServerVersion).Msg("starting MCP server on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(repositoryStatusTool(), s.handleRepositoryStatus)
	s.mcp.AddTool(commitHistoryTool(), s.handleCommitHistory)
}
