// Package indexer orchestrates the build-time pipeline: load documents,
// chunk them, embed the chunks, and upsert everything into the vector index.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/rag-pipeline/internal/chunker"
	"github.com/bull/rag-pipeline/internal/domain"
)

// Result contains statistics about an indexing run.
type Result struct {
	TotalDocs      int
	SuccessfulDocs int
	TotalChunks    int
	FailedDocs     []FailedDoc
	Duration       time.Duration
}

// FailedDoc records a document that was skipped with the reason.
type FailedDoc struct {
	SourceID string
	Reason   string
}

// Pipeline builds the index from a document source. Indexing is a batch job
// expected to run to completion before query traffic; rebuilds while serving
// go into a fresh index behind storage.Handle and are swapped in atomically.
type Pipeline struct {
	source   domain.Source
	chunker  *chunker.Chunker
	embedder domain.Embedder
	index    domain.Index
	logger   *slog.Logger
}

// NewPipeline creates an indexing pipeline.
func NewPipeline(source domain.Source, c *chunker.Chunker, embedder domain.Embedder, index domain.Index, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:   source,
		chunker:  c,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// IndexAll processes every document the source lists. Documents that fail
// to load, chunk, or embed are skipped and reported in the result; a source
// listing failure aborts the run.
func (p *Pipeline) IndexAll(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	ids, err := p.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	result.TotalDocs = len(ids)
	p.logger.Info("Starting indexing", "documents", len(ids))

	for _, id := range ids {
		chunks, err := p.processDocument(ctx, id)
		if err != nil {
			p.logger.Warn("Skipping document", "source", id, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				SourceID: id,
				Reason:   err.Error(),
			})
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(start)
	p.logger.Info("Indexing complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}

// processDocument runs one document through the full build pipeline and
// returns the number of chunks stored for it.
func (p *Pipeline) processDocument(ctx context.Context, id string) (int, error) {
	doc, err := p.source.Fetch(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	p.logger.Debug("Loaded document", "source", id, "size", len(doc.Text))

	chunks := p.chunker.Chunk(doc.SourceID, doc.Text)
	if len(chunks) == 0 {
		p.logger.Debug("Document produced no chunks", "source", id)
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}

	entries := make([]domain.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = domain.Entry{Chunk: chunk, Vector: vectors[i]}
	}

	if err := p.index.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	p.logger.Info("Indexed document", "source", id, "chunks", len(chunks))
	return len(chunks), nil
}
