package prompt

import (
	"strings"
	"testing"

	"github.com/bull/rag-pipeline/internal/domain"
)

func chunk(sourceID string, index int, text string) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:       "id",
			SourceID: sourceID,
			Index:    index,
			Text:     text,
		},
		Score: 0.9,
	}
}

func TestAssemble_LabelsSourcesInOrder(t *testing.T) {
	p := Assemble("What is ML?", []domain.ScoredChunk{
		chunk("ml.txt", 0, "ML is a subset of AI."),
		chunk("ai.md", 3, "AI is the broader field."),
	})

	if !strings.Contains(p, "[Source 1: ml.txt (chunk 0)]") {
		t.Errorf("Missing first source label:\n%s", p)
	}
	if !strings.Contains(p, "[Source 2: ai.md (chunk 3)]") {
		t.Errorf("Missing second source label:\n%s", p)
	}
	if strings.Index(p, "ml.txt") > strings.Index(p, "ai.md") {
		t.Error("Sources out of result order")
	}
	if !strings.Contains(p, "ML is a subset of AI.") {
		t.Error("Missing chunk text")
	}
	if !strings.Contains(p, "Question: What is ML?") {
		t.Error("Missing verbatim question")
	}
	if !strings.HasPrefix(p, Preamble) {
		t.Error("Prompt must start with the instruction preamble")
	}
}

func TestAssemble_NoContextDisclaimer(t *testing.T) {
	p := Assemble("What is ML?", nil)

	if !strings.Contains(p, NoContextNotice) {
		t.Errorf("Empty retrieval must include the no-context notice:\n%s", p)
	}
	if !strings.Contains(p, "Question: What is ML?") {
		t.Error("Missing verbatim question")
	}
	if strings.Contains(p, "[Source") {
		t.Error("No source labels expected without context")
	}
}
