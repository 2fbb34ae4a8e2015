// Package chunker splits document text into overlapping fixed-size windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bull/rag-pipeline/internal/domain"
)

// chunkNamespace is the UUIDv5 namespace for chunk IDs. Fixed so that the
// same (source, index) pair always maps to the same ID, which keeps index
// upserts idempotent across rebuilds.
var chunkNamespace = uuid.MustParse("8f0c7f9a-24da-4d0e-9d41-6b6a3f2e8c15")

// Chunker produces consecutive windows of Size characters, each subsequent
// window starting Size-Overlap characters after the previous one. The final
// window may be shorter; whitespace-only windows are dropped.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Constraints: size > 0 and 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d",
			domain.ErrInvalidConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk splits text into windows. Pure function: no side effects, chunk text
// is kept verbatim so the original document can be reconstructed from the
// windows minus their overlapping regions. Window boundaries count runes,
// never bytes, so multi-byte text is never split mid-character.
func (c *Chunker) Chunk(sourceID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	step := c.size - c.overlap
	var chunks []domain.Chunk

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			index := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:       ChunkID(sourceID, index),
				SourceID: sourceID,
				Index:    index,
				Text:     window,
			})
		}

		// The last window reached the end of the text; further windows
		// would only repeat its tail.
		if end == len(runes) {
			break
		}
	}

	return chunks
}

// ChunkID derives the deterministic chunk identifier for a source and index.
func ChunkID(sourceID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", sourceID, index))).String()
}
