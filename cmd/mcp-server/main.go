// Package main runs the MCP server exposing the QA pipeline over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/rag-pipeline/internal/chunker"
	"github.com/bull/rag-pipeline/internal/config"
	"github.com/bull/rag-pipeline/internal/document"
	"github.com/bull/rag-pipeline/internal/domain"
	"github.com/bull/rag-pipeline/internal/embedding"
	"github.com/bull/rag-pipeline/internal/generator"
	ghsource "github.com/bull/rag-pipeline/internal/github"
	"github.com/bull/rag-pipeline/internal/indexer"
	"github.com/bull/rag-pipeline/internal/mcp"
	"github.com/bull/rag-pipeline/internal/qa"
	"github.com/bull/rag-pipeline/internal/retriever"
	"github.com/bull/rag-pipeline/internal/storage"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	// Stdout belongs to the MCP transport; all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := embedding.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	emb := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingBatch)

	index, rebuild, closeIndex, err := openIndex(ctx, cfg, emb, logger)
	if err != nil {
		return err
	}
	defer closeIndex()

	r, err := retriever.New(emb, index, cfg.TopK, cfg.MinScore)
	if err != nil {
		return err
	}
	g := generator.New(client.API(), cfg.GenerationModel, cfg.Temperature, cfg.MaxTokens, logger)
	engine := qa.New(r, g, logger)

	server := mcp.NewServer(&mcp.Config{
		Engine:    engine,
		Retriever: r,
		Index:     index,
		Rebuild:   rebuild,
	})

	logger.Info("starting MCP server on stdio",
		"store", cfg.Store,
		"embedding_model", cfg.EmbeddingModel,
		"generation_model", cfg.GenerationModel)
	return server.Run(ctx)
}

// openIndex connects to Qdrant, or builds an in-memory index from the
// document source before serving. The memory index sits behind a swappable
// handle; the returned rebuild function repopulates a fresh index and swaps
// it in, so the reindex tool never exposes a half-built index. Qdrant
// rebuilds are owned by the indexing CLI and return no rebuild function.
func openIndex(ctx context.Context, cfg *config.Config, emb *embedding.Embedder, logger *slog.Logger) (domain.Index, mcp.RebuildFunc, func(), error) {
	if cfg.Store == config.StoreQdrant {
		store, err := storage.NewQdrant(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDim, cfg.Distance)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		if err := store.EnsureCollection(ctx); err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("ensure collection: %w", err)
		}
		return store, nil, func() { store.Close() }, nil
	}

	var source domain.Source
	if cfg.GitHubRepo != "" {
		client, err := ghsource.NewClient()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create github client: %w", err)
		}
		owner, repo, _ := strings.Cut(cfg.GitHubRepo, "/")
		source = ghsource.NewSource(client, owner, repo, cfg.GitHubPath, cfg.Extensions)
	} else {
		source = document.NewDirSource(cfg.DocsDir, cfg.Extensions)
	}

	c, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, nil, nil, err
	}

	build := func(ctx context.Context) (*storage.Memory, *indexer.Result, error) {
		index := storage.NewMemory(cfg.Distance)
		result, err := indexer.NewPipeline(source, c, emb, index, logger).IndexAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		return index, result, nil
	}

	logger.Info("building in-memory index before serving")
	index, result, err := build(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build index: %w", err)
	}
	logger.Info("index built",
		"documents", result.SuccessfulDocs,
		"chunks", result.TotalChunks,
		"duration", result.Duration.Round(time.Millisecond))

	handle := storage.NewHandle(index)
	rebuild := func(ctx context.Context) (*indexer.Result, error) {
		fresh, result, err := build(ctx)
		if err != nil {
			return nil, err
		}
		handle.Swap(fresh)
		logger.Info("index rebuilt",
			"documents", result.SuccessfulDocs,
			"chunks", result.TotalChunks,
			"duration", result.Duration.Round(time.Millisecond))
		return result, nil
	}
	return handle, rebuild, func() {}, nil
}
