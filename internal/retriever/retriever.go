// Package retriever performs semantic retrieval: embed the question, query
// the vector index, filter by the relevance threshold.
package retriever

import (
	"context"
	"fmt"

	"github.com/bull/rag-pipeline/internal/domain"
)

// Retriever finds the stored chunks most similar to a question. It makes
// exactly one embedding call per retrieval and propagates embedder and index
// errors unchanged, so callers decide the retry policy.
type Retriever struct {
	embedder domain.Embedder
	index    domain.Index
	topK     int
	minScore float64
}

// New creates a Retriever. topK is the default result count (>= 1); chunks
// scoring below minScore are dropped from results, 0 disables the filter.
func New(embedder domain.Embedder, index domain.Index, topK int, minScore float64) (*Retriever, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", domain.ErrInvalidConfig, topK)
	}
	if minScore < 0 {
		return nil, fmt.Errorf("%w: min score must be >= 0, got %g", domain.ErrInvalidConfig, minScore)
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		minScore: minScore,
	}, nil
}

// Retrieve returns up to topK chunks ranked by descending similarity to the
// question. topK <= 0 uses the configured default. Deterministic given
// deterministic embeddings and an unchanged index.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		topK = r.topK
	}

	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one question", domain.ErrEmbeddingService, len(vectors))
	}

	results, err := r.index.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, err
	}

	if r.minScore <= 0 {
		return results, nil
	}
	filtered := results[:0]
	for _, result := range results {
		if result.Score >= r.minScore {
			filtered = append(filtered, result)
		}
	}
	return filtered, nil
}
