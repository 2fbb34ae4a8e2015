package qa

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/rag-pipeline/internal/domain"
	"github.com/bull/rag-pipeline/internal/prompt"
)

type stubRetriever struct {
	chunks []domain.ScoredChunk
	err    error
}

func (s *stubRetriever) Retrieve(ctx context.Context, question string, topK int) ([]domain.ScoredChunk, error) {
	return s.chunks, s.err
}

type stubGenerator struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) Generate(ctx context.Context, p string) (string, error) {
	s.calls++
	s.lastPrompt = p
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func scoredChunk(id, sourceID string, index int, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:       id,
			SourceID: sourceID,
			Index:    index,
			Text:     "text of " + id,
		},
		Score: score,
	}
}

func TestAsk_AttachesSourcesUnmodified(t *testing.T) {
	r := &stubRetriever{chunks: []domain.ScoredChunk{
		scoredChunk("c1", "ml.txt", 0, 0.92),
		scoredChunk("c2", "ai.md", 4, 0.61),
	}}
	g := &stubGenerator{reply: "ML is a subset of AI."}

	engine := New(r, g, nil)
	answer, err := engine.Ask(context.Background(), "What is ML?")
	require.NoError(t, err)

	assert.Equal(t, "ML is a subset of AI.", answer.Text)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, domain.SourceRef{ChunkID: "c1", SourceID: "ml.txt", Index: 0, Score: 0.92}, answer.Sources[0])
	assert.Equal(t, domain.SourceRef{ChunkID: "c2", SourceID: "ai.md", Index: 4, Score: 0.61}, answer.Sources[1])

	// The prompt handed to the generator carries the retrieved context.
	assert.Contains(t, g.lastPrompt, "[Source 1: ml.txt (chunk 0)]")
	assert.Contains(t, g.lastPrompt, "Question: What is ML?")
}

func TestAsk_EmptyRetrievalUsesDisclaimer(t *testing.T) {
	r := &stubRetriever{}
	g := &stubGenerator{reply: "Answering from general knowledge."}

	engine := New(r, g, nil)
	answer, err := engine.Ask(context.Background(), "What is ML?")
	require.NoError(t, err)

	assert.Empty(t, answer.Sources)
	assert.True(t, strings.Contains(g.lastPrompt, prompt.NoContextNotice),
		"prompt must carry the no-context notice")
}

func TestAsk_RetrieverErrorReturnsNoAnswer(t *testing.T) {
	r := &stubRetriever{err: fmt.Errorf("embed: %w", domain.ErrEmbeddingService)}
	g := &stubGenerator{reply: "should not be used"}

	engine := New(r, g, nil)
	answer, err := engine.Ask(context.Background(), "What is ML?")

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.Zero(t, g.calls, "generation must not run after retrieval failure")
}

func TestAsk_GeneratorErrorReturnsNoAnswer(t *testing.T) {
	r := &stubRetriever{chunks: []domain.ScoredChunk{scoredChunk("c1", "ml.txt", 0, 0.9)}}
	g := &stubGenerator{err: fmt.Errorf("llm: %w", domain.ErrGenerationService)}

	engine := New(r, g, nil)
	answer, err := engine.Ask(context.Background(), "What is ML?")

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, domain.ErrGenerationService)
}
