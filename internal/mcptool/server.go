package mcptool

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qmd-dev/qmd/internal/engine"
)

// serverName and serverVersion identify qmd to MCP clients.
const (
	serverName    = "qmd"
	serverVersion = "0.1.0"
)

// Server is qmd's MCP tool server, bridging clients (Claude, editors,
// agents) to the Engine's search and storage operations (spec.md §6).
// Grounded on the teacher's internal/mcp.Server shape, narrowed to qmd's
// six operations and single resource scheme.
type Server struct {
	engine *engine.Engine
	mcp    *mcp.Server
	logger *slog.Logger
}

// NewServer builds a Server over e, registers every tool and document
// resource, and returns it ready to Serve.
func NewServer(e *engine.Engine, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: e,
		logger: logger,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	s.registerTools()
	if err := s.registerResources(); err != nil {
		return nil, err
	}

	return s, nil
}

// registerTools wires qmd's six tool-server operations (spec.md §6).
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Lexical search over indexed markdown documents using full-text BM25 ranking.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "vsearch",
		Description: "Semantic search over indexed markdown documents using embedding similarity.",
	}, s.handleVSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query",
		Description: "Hybrid search: query expansion, parallel lexical and semantic search, reciprocal rank fusion, and reranking.",
	}, s.handleQuery)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get",
		Description: "Fetch a single document's full content by its qmd:// virtual path.",
	}, s.handleGet)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "multi_get",
		Description: "Fetch several documents by their qmd:// virtual paths in one call.",
	}, s.handleMultiGet)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "status",
		Description: "Report indexed collections, document counts, and the configured model defaults.",
	}, s.handleStatus)
}

// logCall assigns a request ID to one tool invocation and logs its
// start, returning a func to log its completion. Grounded on the
// teacher's request-scoped logging in internal/mcp/server.go, using
// google/uuid (already in the teacher's go.mod) for the correlation ID
// instead of the teacher's incrementing request counter, since qmd's
// stdio transport serves one client at a time and a random ID is
// simpler than threading a shared counter through Server.
func (s *Server) logCall(tool string) func() {
	id := uuid.New().String()
	s.logger.Info("tool call started", slog.String("tool", tool), slog.String("request_id", id))
	return func() {
		s.logger.Info("tool call finished", slog.String("tool", tool), slog.String("request_id", id))
	}
}

// Serve runs the server over a line-delimited stdio JSON-RPC channel
// until ctx is cancelled (spec.md §6: "a line-delimited request/response
// channel on standard input/output with a versioned envelope").
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting qmd MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}
