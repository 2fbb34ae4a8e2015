//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/rag-pipeline/internal/chunker"
	"github.com/bull/rag-pipeline/internal/domain"
)

const testDim = 4

// setupQdrant connects to a local Qdrant with a throwaway collection.
// Skips the test if Qdrant is not running.
func setupQdrant(t *testing.T) *Qdrant {
	t.Helper()

	q, err := NewQdrant("localhost", 6334, "rag_chunks_test", testDim, domain.DistanceCosine)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() { q.Close() })

	require.NoError(t, q.EnsureCollection(context.Background()))
	require.NoError(t, q.Clear(context.Background()))
	return q
}

func qdrantEntry(sourceID string, index int, vector ...float32) domain.Entry {
	return domain.Entry{
		Chunk: domain.Chunk{
			ID:       chunker.ChunkID(sourceID, index),
			SourceID: sourceID,
			Index:    index,
			Text:     "chunk text",
		},
		Vector: vector,
	}
}

func TestQdrant_UpsertQueryRoundTrip(t *testing.T) {
	q := setupQdrant(t)
	ctx := context.Background()

	require.NoError(t, q.Upsert(ctx, []domain.Entry{
		qdrantEntry("doc.txt", 0, 1, 0, 0, 0),
		qdrantEntry("doc.txt", 1, 0, 1, 0, 0),
	}))

	results, err := q.Query(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	top := results[0]
	assert.Equal(t, "doc.txt", top.SourceID)
	assert.Equal(t, 0, top.Index)
	assert.Equal(t, "chunk text", top.Text)
	assert.Greater(t, top.Score, results[1].Score)
}

func TestQdrant_UpsertIdempotent(t *testing.T) {
	q := setupQdrant(t)
	ctx := context.Background()

	e := qdrantEntry("doc.txt", 0, 1, 0, 0, 0)
	require.NoError(t, q.Upsert(ctx, []domain.Entry{e}))
	require.NoError(t, q.Upsert(ctx, []domain.Entry{e}))

	count, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQdrant_EmptyCollectionNotReady(t *testing.T) {
	q := setupQdrant(t)

	_, err := q.Query(context.Background(), []float32{1, 0, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
}

func TestQdrant_DimensionMismatch(t *testing.T) {
	q := setupQdrant(t)
	ctx := context.Background()

	err := q.Upsert(ctx, []domain.Entry{qdrantEntry("doc.txt", 0, 1, 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = q.Query(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
