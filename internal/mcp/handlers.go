package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/rag-pipeline/internal/domain"
	"github.com/bull/rag-pipeline/internal/qa"
	"github.com/bull/rag-pipeline/internal/retriever"
)

// publicError converts pipeline failures into messages safe to surface to
// clients: classified by the error taxonomy, never exposing provider
// internals, credentials, or stack traces.
func publicError(err error) error {
	switch {
	case errors.Is(err, domain.ErrIndexNotReady):
		return errors.New("the document index is empty; run the indexer first")
	case errors.Is(err, domain.ErrTimeout):
		return errors.New("the request timed out; try again")
	case errors.Is(err, domain.ErrEmbeddingService):
		return errors.New("the embedding service is currently unavailable")
	case errors.Is(err, domain.ErrGenerationService):
		return errors.New("the generation service is currently unavailable")
	default:
		return errors.New("internal error")
	}
}

// makeAskHandler creates the ask tool handler: full retrieve → assemble →
// generate pipeline, returning the answer with source provenance.
func makeAskHandler(engine *qa.Engine) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		if input.Question == "" {
			return nil, AskOutput{}, fmt.Errorf("question must not be empty")
		}

		answer, err := engine.Ask(ctx, input.Question)
		if err != nil {
			return nil, AskOutput{}, publicError(err)
		}

		sources := answer.Sources
		if sources == nil {
			sources = []domain.SourceRef{}
		}
		return nil, AskOutput{Answer: answer.Text, Sources: sources}, nil
	}
}

// makeSearchHandler creates the search tool handler: retrieval only, no
// generation, for clients that want raw context chunks.
func makeSearchHandler(r *retriever.Retriever) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		if input.Query == "" {
			return nil, SearchOutput{}, fmt.Errorf("query must not be empty")
		}

		chunks, err := r.Retrieve(ctx, input.Query, input.TopK)
		if err != nil {
			return nil, SearchOutput{}, publicError(err)
		}

		results := make([]SearchResult, 0, len(chunks))
		for _, chunk := range chunks {
			results = append(results, SearchResult{
				ChunkID:    chunk.ID,
				SourceID:   chunk.SourceID,
				ChunkIndex: chunk.Index,
				Text:       chunk.Text,
				Score:      chunk.Score,
			})
		}

		if len(results) == 0 {
			return nil, SearchOutput{
				Results: results,
				Message: "No matching chunks found. Try broader search terms.",
			}, nil
		}
		return nil, SearchOutput{Results: results}, nil
	}
}

// makeReindexHandler creates the reindex tool handler. rebuild populates a
// fresh index from the document source and swaps it in atomically, so
// concurrent queries never observe a partially-built index.
func makeReindexHandler(rebuild RebuildFunc) func(
	context.Context, *mcp.CallToolRequest, ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ReindexInput) (
		*mcp.CallToolResult, ReindexOutput, error,
	) {
		result, err := rebuild(ctx)
		if err != nil {
			return nil, ReindexOutput{}, publicError(err)
		}

		var failed []string
		for _, doc := range result.FailedDocs {
			failed = append(failed, doc.SourceID)
		}
		return nil, ReindexOutput{
			Documents: result.SuccessfulDocs,
			Chunks:    result.TotalChunks,
			Failed:    failed,
		}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(index domain.Index) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		count, err := index.Count(ctx)
		if err != nil {
			return nil, StatusOutput{}, publicError(err)
		}
		return nil, StatusOutput{
			TotalChunks: count,
			Ready:       count > 0,
		}, nil
	}
}
