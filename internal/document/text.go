package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bull/rag-pipeline/internal/domain"
)

// Text loads plain text files verbatim.
type Text struct{}

// Load returns the file content unchanged apart from trimming trailing
// whitespace. Non-UTF-8 files fail with ErrUndecodable.
func (Text) Load(sourceID string, data []byte) (domain.Document, error) {
	if !utf8.Valid(data) {
		return domain.Document{}, fmt.Errorf("%s: %w", sourceID, ErrUndecodable)
	}
	return domain.Document{
		SourceID: sourceID,
		Text:     strings.TrimRight(string(data), " \t\n"),
	}, nil
}
