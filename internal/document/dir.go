package document

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bull/rag-pipeline/internal/domain"
)

// DirSource lists and loads documents from a local directory tree. Document
// IDs are slash-separated paths relative to the root.
type DirSource struct {
	root string
	exts map[string]bool
}

// NewDirSource creates a directory source restricted to the given extensions
// (e.g. ".txt", ".md"). Extensions with no registered loader are still
// listed and fail at fetch time with ErrUnsupportedFormat.
func NewDirSource(root string, exts []string) *DirSource {
	extSet := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = true
	}
	return &DirSource{root: root, exts: extSet}
}

// List walks the directory and returns matching file paths, sorted for a
// stable indexing order.
func (s *DirSource) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !s.exts[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Fetch reads and loads a single document by its relative path.
func (s *DirSource) Fetch(ctx context.Context, id string) (domain.Document, error) {
	if ctx.Err() != nil {
		return domain.Document{}, ctx.Err()
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(id)))
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", id, err)
	}
	return Load(id, data)
}
