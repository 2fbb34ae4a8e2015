package retriever

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/rag-pipeline/internal/chunker"
	"github.com/bull/rag-pipeline/internal/domain"
	"github.com/bull/rag-pipeline/internal/storage"
)

// stubEmbedder produces deterministic keyword-presence vectors so retrieval
// ranking can be asserted without a live embedding model.
type stubEmbedder struct {
	keywords []string
	calls    int
	err      error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, len(s.keywords))
		lower := strings.ToLower(text)
		for j, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				v[j] = 1
			}
		}
		vectors[i] = v
	}
	return vectors, nil
}

func seedIndex(t *testing.T, emb *stubEmbedder, texts ...string) domain.Index {
	t.Helper()
	ctx := context.Background()

	vectors, err := emb.Embed(ctx, texts)
	require.NoError(t, err)
	emb.calls-- // seeding is not part of the retrieval under test

	index := storage.NewMemory(domain.DistanceCosine)
	entries := make([]domain.Entry, len(texts))
	for i, text := range texts {
		entries[i] = domain.Entry{
			Chunk: domain.Chunk{
				ID:       chunker.ChunkID("kb.txt", i),
				SourceID: "kb.txt",
				Index:    i,
				Text:     text,
			},
			Vector: vectors[i],
		}
	}
	require.NoError(t, index.Upsert(ctx, entries))
	return index
}

func TestRetrieve_TopMatch(t *testing.T) {
	emb := &stubEmbedder{keywords: []string{"machine", "learning", "cooking", "pasta"}}
	index := seedIndex(t, emb,
		"Machine learning is a subset of AI.",
		"Cooking pasta requires boiling water.",
	)

	r, err := New(emb, index, 3, 0.3)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "What is machine learning?", 0)
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "Machine learning is a subset of AI.", results[0].Text)
	assert.Greater(t, results[0].Score, 0.3)
	assert.Equal(t, 1, emb.calls, "exactly one embedding call per retrieval")
}

func TestRetrieve_MinScoreFilter(t *testing.T) {
	emb := &stubEmbedder{keywords: []string{"machine", "learning", "cooking", "pasta"}}
	index := seedIndex(t, emb,
		"Machine learning is a subset of AI.",
		"Cooking pasta requires boiling water.",
	)

	r, err := New(emb, index, 3, 0.5)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "What is machine learning?", 0)
	require.NoError(t, err)

	for _, result := range results {
		assert.GreaterOrEqual(t, result.Score, 0.5)
	}
	assert.Len(t, results, 1, "unrelated chunk must fall below the threshold")
}

func TestRetrieve_Deterministic(t *testing.T) {
	emb := &stubEmbedder{keywords: []string{"alpha", "beta", "gamma"}}
	index := seedIndex(t, emb, "alpha beta", "beta gamma", "alpha gamma")

	r, err := New(emb, index, 3, 0)
	require.NoError(t, err)

	first, err := r.Retrieve(context.Background(), "alpha", 0)
	require.NoError(t, err)
	second, err := r.Retrieve(context.Background(), "alpha", 0)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestRetrieve_EmbedderFailurePropagates(t *testing.T) {
	emb := &stubEmbedder{err: fmt.Errorf("boom: %w", domain.ErrEmbeddingService)}
	index := storage.NewMemory(domain.DistanceCosine)

	r, err := New(emb, index, 3, 0)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "anything", 0)
	assert.Nil(t, results, "no partial result on embedder failure")
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestRetrieve_EmptyIndexPropagates(t *testing.T) {
	emb := &stubEmbedder{keywords: []string{"x"}}
	index := storage.NewMemory(domain.DistanceCosine)

	r, err := New(emb, index, 3, 0)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "anything", 0)
	assert.ErrorIs(t, err, domain.ErrIndexNotReady)
}

func TestNew_Validation(t *testing.T) {
	emb := &stubEmbedder{}
	index := storage.NewMemory(domain.DistanceCosine)

	_, err := New(emb, index, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = New(emb, index, 1, -0.1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
