// Package storage provides the vector index implementations: an in-process
// brute-force store and a Qdrant-backed store. Both satisfy domain.Index.
package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/bull/rag-pipeline/internal/domain"
)

// Memory is an in-process vector index using brute-force similarity search.
// Writes are serialized; reads may run concurrently. The similarity metric
// is fixed at construction.
type Memory struct {
	mu       sync.RWMutex
	distance domain.Distance
	dim      int // set by the first upsert, then enforced
	order    []string
	entries  map[string]domain.Entry
}

// NewMemory creates an empty in-memory index with the given metric.
func NewMemory(distance domain.Distance) *Memory {
	return &Memory{
		distance: distance,
		entries:  make(map[string]domain.Entry),
	}
}

// Upsert inserts or replaces entries by chunk ID. Replacement keeps the
// entry's original insertion position so tie-breaking stays stable. The
// whole batch is validated up front: a dimension mismatch rejects it without
// storing any entry.
func (m *Memory) Upsert(ctx context.Context, entries []domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dim
	for _, e := range entries {
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) == 0 || len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %s has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, e.ID, len(e.Vector), dim)
		}
	}

	m.dim = dim
	for _, e := range entries {
		if _, seen := m.entries[e.ID]; !seen {
			m.order = append(m.order, e.ID)
		}
		m.entries[e.ID] = e
	}
	return nil
}

// Query returns up to min(topK, stored entries) results by non-increasing
// score. Equal scores keep insertion order, so identical queries against an
// unchanged index always return identical results.
func (m *Memory) Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", domain.ErrInvalidConfig, topK)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, domain.ErrIndexNotReady
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			domain.ErrDimensionMismatch, len(vector), m.dim)
	}

	scored := make([]domain.ScoredChunk, 0, len(m.order))
	for _, id := range m.order {
		e := m.entries[id]
		scored = append(scored, domain.ScoredChunk{
			Chunk: e.Chunk,
			Score: m.score(vector, e.Vector),
		})
	}

	// Stable sort preserves insertion order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Count returns the number of stored entries.
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// score computes similarity under the configured metric. Higher is closer
// for both metrics: L2 distances are negated.
func (m *Memory) score(a, b []float32) float64 {
	switch m.distance {
	case domain.DistanceL2:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return -math.Sqrt(sum)
	default: // cosine
		var dot, normA, normB float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			normA += float64(a[i]) * float64(a[i])
			normB += float64(b[i]) * float64(b[i])
		}
		if normA == 0 || normB == 0 {
			return 0
		}
		return dot / (math.Sqrt(normA) * math.Sqrt(normB))
	}
}
