// Package mcpserver exposes the configured commands as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/allbin/mcp2serial/internal/catalog"
	"github.com/allbin/mcp2serial/internal/dispatch"
)

// Name is the server name reported to clients.
const Name = "mcp2serial"

// Server wraps an mcp-go server whose tools are the dispatcher's catalog.
type Server struct {
	mcp        *server.MCPServer
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
}

// New registers one tool per catalog entry.
func New(d *dispatch.Dispatcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		dispatcher: d,
		log:        logger,
	}

	tools := d.Catalog().Tools()
	s.mcp = server.NewMCPServer(Name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions(tools)),
	)
	for _, t := range tools {
		s.mcp.AddTool(catalog.MCPTool(t), s.handler(t.Name))
	}
	logger.Debug("registered tools", "count", len(tools))
	return s
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := s.dispatcher.Invoke(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		result := &mcp.CallToolResult{Content: make([]mcp.Content, 0, len(items))}
		for _, item := range items {
			result.Content = append(result.Content, mcp.NewTextContent(item.Text))
		}
		return result, nil
	}
}

// ServeStdio serves JSON-RPC on in/out until ctx is cancelled or in
// reaches EOF.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError))
	s.log.Info("serving MCP on stdio")
	return stdio.Listen(ctx, in, out)
}

func instructions(tools []catalog.ToolDescriptor) string {
	if len(tools) == 0 {
		return "No serial commands are configured."
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return fmt.Sprintf("Each tool sends one command line to a serial device and returns its reply. Calls run one at a time. Available: %s.",
		strings.Join(names, ", "))
}
