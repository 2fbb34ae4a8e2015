package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/bull/rag-pipeline/internal/document"
	"github.com/bull/rag-pipeline/internal/domain"
)

// Source lists and fetches documents from a directory inside a GitHub
// repository. Document IDs are paths relative to basePath. Fetched files go
// through the same format loaders as local ones.
type Source struct {
	client   *Client
	owner    string
	repo     string
	basePath string
	exts     map[string]bool
}

// NewSource creates a GitHub document source for owner/repo limited to files
// under basePath with one of the given extensions.
func NewSource(client *Client, owner, repo, basePath string, exts []string) *Source {
	extSet := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = true
	}
	return &Source{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
		exts:     extSet,
	}
}

// List recursively walks the repository directory and returns matching
// file paths.
func (s *Source) List(ctx context.Context) ([]string, error) {
	return s.listRecursive(ctx, s.basePath, "")
}

func (s *Source) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	_, dirContents, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fullPath, err)
	}

	var ids []string
	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if s.exts[strings.ToLower(path.Ext(*item.Name))] {
				ids = append(ids, itemRelPath)
			}
		case "dir":
			subIDs, err := s.listRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			ids = append(ids, subIDs...)
		}
	}
	return ids, nil
}

// Fetch downloads one file and loads it into a Document.
func (s *Source) Fetch(ctx context.Context, id string) (domain.Document, error) {
	fullPath := path.Join(s.basePath, id)

	fileContent, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, fullPath, nil)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return domain.Document{}, fmt.Errorf("no file content returned for %s", fullPath)
	}

	data, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return domain.Document{}, fmt.Errorf("decode %s: %w", fullPath, err)
	}

	return document.Load(id, data)
}
