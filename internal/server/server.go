// Package server exposes the graphcp operations as MCP tools.
//
// Three tools are registered: set_output_location, generate_description_file
// and generate_image. Each returns a single text confirmation on success. On
// failure the result is flagged as a tool error and its text carries the
// error code and message, so clients can distinguish a rejected path from a
// syntax error or a parameter error.
//
// The server runs over stdio by default or over streamable HTTP mounted on a
// chi router next to /healthz and /metrics.
package server

import (
	"context"

	"github.com/charmbracelet/log"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matzehuels/graphcp/pkg/buildinfo"
	"github.com/matzehuels/graphcp/pkg/pipeline"
)

// Server wraps an MCP server bound to one pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	server *sdk.Server
}

// New creates a server and registers its tools.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		logger: logger,
		server: sdk.NewServer(&sdk.Implementation{
			Name:    buildinfo.Name,
			Version: buildinfo.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *sdk.Server {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout until ctx ends or the client
// disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", "version", buildinfo.Version)
	return s.server.Run(ctx, &sdk.StdioTransport{})
}
