// Package mcp exposes the QA pipeline over the Model Context Protocol via
// stdio transport.
package mcp

import "github.com/bull/rag-pipeline/internal/domain"

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is the natural-language question to answer from the index.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the indexed documents"`
}

// AskOutput contains the generated answer with provenance.
type AskOutput struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Sources lists the chunks whose text was used as context.
	Sources []domain.SourceRef `json:"sources"`
}

// SearchInput defines the input parameters for the search tool.
type SearchInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query"`
	// TopK is the maximum number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=20,description=Maximum number of chunks to return"`
}

// SearchOutput contains the matching chunks.
type SearchOutput struct {
	// Results is the list of matching chunks, best first.
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g. nothing matched).
	Message string `json:"message,omitempty"`
}

// SearchResult is a single chunk match.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	SourceID   string  `json:"source_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// ReindexInput defines the input for the reindex tool (none required).
type ReindexInput struct{}

// ReindexOutput reports the result of an index rebuild.
type ReindexOutput struct {
	// Documents is the number of documents indexed successfully.
	Documents int `json:"documents"`
	// Chunks is the number of chunks in the rebuilt index.
	Chunks int `json:"chunks"`
	// Failed lists source IDs that could not be indexed.
	Failed []string `json:"failed,omitempty"`
}

// StatusInput defines the input for the index_status tool (none required).
type StatusInput struct{}

// StatusOutput reports the current state of the index.
type StatusOutput struct {
	// TotalChunks is the number of entries in the vector index.
	TotalChunks int `json:"total_chunks"`
	// Ready is false while the index holds no entries.
	Ready bool `json:"ready"`
}
