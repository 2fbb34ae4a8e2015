// Package document loads raw text sources into domain Documents. Each
// supported file format has its own Loader; dispatch is by file extension.
package document

import (
	"errors"
	"path"
	"strings"

	"github.com/bull/rag-pipeline/internal/domain"
)

// ErrUndecodable marks files whose bytes are not valid UTF-8. Sources skip
// such files with a warning rather than failing the whole build.
var ErrUndecodable = errors.New("file is not valid UTF-8 text")

// ErrUnsupportedFormat marks files with no registered loader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Loader converts one raw file into a Document.
type Loader interface {
	Load(sourceID string, data []byte) (domain.Document, error)
}

// loaders maps lowercase extensions to their format loader.
var loaders = map[string]Loader{
	".txt":      Text{},
	".md":       NewMarkdown(),
	".markdown": NewMarkdown(),
}

// ForExtension returns the loader registered for ext (e.g. ".md").
func ForExtension(ext string) (Loader, bool) {
	l, ok := loaders[strings.ToLower(ext)]
	return l, ok
}

// Load dispatches to the loader registered for the file's extension.
func Load(sourceID string, data []byte) (domain.Document, error) {
	loader, ok := ForExtension(path.Ext(sourceID))
	if !ok {
		return domain.Document{}, ErrUnsupportedFormat
	}
	return loader.Load(sourceID, data)
}
