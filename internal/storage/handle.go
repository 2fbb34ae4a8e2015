package storage

import (
	"context"
	"sync/atomic"

	"github.com/bull/rag-pipeline/internal/domain"
)

// Handle is an atomically swappable reference to an index. A rebuild
// populates a fresh index and then calls Swap, so readers either see the old
// fully-built index or the new one, never a partially-populated state.
//
// Handle itself implements domain.Index by delegating to the current target.
type Handle struct {
	current atomic.Pointer[indexBox]
}

// indexBox wraps the interface value so it can live behind atomic.Pointer.
type indexBox struct {
	index domain.Index
}

// NewHandle creates a handle pointing at the given index.
func NewHandle(index domain.Index) *Handle {
	h := &Handle{}
	h.current.Store(&indexBox{index: index})
	return h
}

// Swap atomically replaces the target index.
func (h *Handle) Swap(index domain.Index) {
	h.current.Store(&indexBox{index: index})
}

// Current returns the index the handle points at.
func (h *Handle) Current() domain.Index {
	return h.current.Load().index
}

func (h *Handle) Upsert(ctx context.Context, entries []domain.Entry) error {
	return h.Current().Upsert(ctx, entries)
}

func (h *Handle) Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	return h.Current().Query(ctx, vector, topK)
}

func (h *Handle) Count(ctx context.Context) (int, error) {
	return h.Current().Count(ctx)
}
