// Package domain holds the core data types and contracts shared across the
// retrieval pipeline. It has no knowledge of providers or storage backends.
package domain

import "context"

// Document is a raw text source produced by a loader.
type Document struct {
	SourceID string // Unique identifier, e.g. relative file path
	Title    string // Optional display title (first heading for markdown)
	Text     string // Full plain text content
}

// Chunk is a bounded contiguous slice of a document's text, the unit of
// embedding and retrieval. Chunks are immutable after creation.
type Chunk struct {
	ID       string // Deterministic, derived from SourceID and Index
	SourceID string // References the owning Document
	Index    int    // 0-based position within the source
	Text     string // Verbatim window of the document text
}

// Entry pairs a chunk with its embedding vector for storage in an index.
type Entry struct {
	Chunk
	Vector []float32
}

// ScoredChunk is a retrieval result: a stored chunk with a similarity score.
// Higher scores mean closer matches regardless of the configured metric.
type ScoredChunk struct {
	Chunk
	Score float64
}

// SourceRef identifies a chunk that contributed context to an answer.
type SourceRef struct {
	ChunkID  string  `json:"chunk_id"`
	SourceID string  `json:"source_id"`
	Index    int     `json:"chunk_index"`
	Score    float64 `json:"score"`
}

// Answer is the generated response to a question together with the
// provenance of the context used to produce it.
type Answer struct {
	Text    string
	Sources []SourceRef
}

// Distance selects the similarity metric for a vector index. The metric is
// fixed for the lifetime of an index; mixing metrics produces incomparable
// scores.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceL2     Distance = "l2"
)

// Embedder maps texts to fixed-length vectors, one per input, order preserved.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores chunk embeddings and supports nearest-neighbor queries.
//
// Upsert is idempotent by chunk ID. Query returns at most
// min(topK, stored entries) results ordered by non-increasing score, with
// ties broken by insertion order (earliest wins). Querying an empty index
// fails with ErrIndexNotReady.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, topK int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}

// Source enumerates and fetches documents from some backing location,
// such as a local directory or a GitHub repository path.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, id string) (Document, error)
}
