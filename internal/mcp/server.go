package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/rag-pipeline/internal/domain"
	"github.com/bull/rag-pipeline/internal/indexer"
	"github.com/bull/rag-pipeline/internal/qa"
	"github.com/bull/rag-pipeline/internal/retriever"
)

// Server wraps the MCP server with its pipeline dependencies.
type Server struct {
	server *mcp.Server
}

// RebuildFunc rebuilds the index from the document source and returns the
// build stats. Implementations populate a fresh index and swap it in so
// readers never see a partial rebuild.
type RebuildFunc func(ctx context.Context) (*indexer.Result, error)

// Config holds server dependencies. Rebuild is optional; when set, the
// reindex tool is registered.
type Config struct {
	Engine    *qa.Engine
	Retriever *retriever.Retriever
	Index     domain.Index
	Rebuild   RebuildFunc
}

// NewServer creates a configured MCP server with the QA tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "rag-pipeline-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents. Returns the generated answer with the source chunks used as context.",
	}, makeAskHandler(cfg.Engine))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Semantically search the indexed documents. Returns matching chunks with similarity scores, without generating an answer.",
	}, makeSearchHandler(cfg.Retriever))

	if cfg.Rebuild != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "reindex",
			Description: "Rebuild the vector index from the document source. The new index replaces the old one atomically once fully built.",
		}, makeReindexHandler(cfg.Rebuild))
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the current state of the vector index, including the number of stored chunks.",
	}, makeStatusHandler(cfg.Index))

	return &Server{server: server}
}

// Run starts the server on stdio transport and blocks until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
