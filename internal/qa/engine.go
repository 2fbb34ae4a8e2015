// Package qa ties retrieval, prompt assembly, and generation into the
// query-time pipeline.
package qa

import (
	"context"
	"log/slog"

	"github.com/bull/rag-pipeline/internal/domain"
	"github.com/bull/rag-pipeline/internal/prompt"
)

// Retriever finds context chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]domain.ScoredChunk, error)
}

// Generator produces the answer text for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine answers questions against the indexed corpus. It performs no
// retries of its own: component errors propagate to the caller, which owns
// the retry policy and must not surface provider internals to end users.
type Engine struct {
	retriever Retriever
	generator Generator
	logger    *slog.Logger
}

// New creates an Engine.
func New(retriever Retriever, generator Generator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		retriever: retriever,
		generator: generator,
		logger:    logger,
	}
}

// Ask retrieves context for the question, assembles the prompt, and
// generates a grounded answer. The sources used to build the prompt are
// attached to the Answer unmodified so callers can display provenance
// without recomputation. On any error no Answer is returned.
func (e *Engine) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	chunks, err := e.retriever.Retrieve(ctx, question, 0)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Retrieved context", "question", question, "chunks", len(chunks))

	text, err := e.generator.Generate(ctx, prompt.Assemble(question, chunks))
	if err != nil {
		return nil, err
	}

	sources := make([]domain.SourceRef, len(chunks))
	for i, chunk := range chunks {
		sources[i] = domain.SourceRef{
			ChunkID:  chunk.ID,
			SourceID: chunk.SourceID,
			Index:    chunk.Index,
			Score:    chunk.Score,
		}
	}

	return &domain.Answer{Text: text, Sources: sources}, nil
}
