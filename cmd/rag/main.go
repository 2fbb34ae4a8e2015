// Package main provides the rag CLI: index building, one-shot questions,
// and an interactive question-answering loop.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/rag-pipeline/internal/chunker"
	"github.com/bull/rag-pipeline/internal/config"
	"github.com/bull/rag-pipeline/internal/document"
	"github.com/bull/rag-pipeline/internal/domain"
	"github.com/bull/rag-pipeline/internal/embedding"
	"github.com/bull/rag-pipeline/internal/generator"
	ghsource "github.com/bull/rag-pipeline/internal/github"
	"github.com/bull/rag-pipeline/internal/indexer"
	"github.com/bull/rag-pipeline/internal/qa"
	"github.com/bull/rag-pipeline/internal/retriever"
	"github.com/bull/rag-pipeline/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Retrieval-augmented question answering over a document corpus",
	Long: `rag chunks documents, embeds them into a vector index, and answers
questions grounded in the retrieved context.

Configuration is read from the environment (and .env if present); see
internal/config for the recognized variables and defaults.`,
}

var keepExisting bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the vector index from the configured document source",
	Long: `Builds the Qdrant index from the configured document source.

By default the existing collection is cleared first so the index matches the
current corpus exactly; pass --keep to upsert into the existing collection
instead. The in-memory store lives only for the duration of a process, so
"rag chat" and "rag ask" build it on the fly; "rag index" requires
RAG_STORE=qdrant.`,
	RunE: runIndex,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question-answering loop",
	RunE:  runChat,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report vector store health and index size",
	RunE:  runStatus,
}

func init() {
	indexCmd.Flags().BoolVar(&keepExisting, "keep", false, "upsert into the existing collection instead of clearing it")
	rootCmd.AddCommand(indexCmd, askCmd, chatCmd, statusCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSource picks the GitHub source when RAG_GITHUB_REPO is set, otherwise
// the local docs directory.
func newSource(cfg *config.Config) (domain.Source, error) {
	if cfg.GitHubRepo != "" {
		client, err := ghsource.NewClient()
		if err != nil {
			return nil, fmt.Errorf("create github client: %w", err)
		}
		owner, repo, _ := strings.Cut(cfg.GitHubRepo, "/")
		return ghsource.NewSource(client, owner, repo, cfg.GitHubPath, cfg.Extensions), nil
	}
	return document.NewDirSource(cfg.DocsDir, cfg.Extensions), nil
}

func newEmbedder(cfg *config.Config) (*embedding.Client, *embedding.Embedder, error) {
	client, err := embedding.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.RequestTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding client: %w", err)
	}
	return client, embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingBatch), nil
}

func openQdrant(cfg *config.Config) (*storage.Qdrant, error) {
	store, err := storage.NewQdrant(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, cfg.EmbeddingDim, cfg.Distance)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}
	if err := store.EnsureCollection(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return store, nil
}

// buildIndex runs the indexing pipeline into the given index.
func buildIndex(ctx context.Context, cfg *config.Config, emb *embedding.Embedder, index domain.Index) (*indexer.Result, error) {
	source, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	c, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	pipeline := indexer.NewPipeline(source, c, emb, index, nil)
	return pipeline.IndexAll(ctx)
}

// newEngine wires the query-time pipeline against an already-built index.
func newEngine(cfg *config.Config, client *embedding.Client, emb *embedding.Embedder, index domain.Index) (*qa.Engine, error) {
	r, err := retriever.New(emb, index, cfg.TopK, cfg.MinScore)
	if err != nil {
		return nil, err
	}
	g := generator.New(client.API(), cfg.GenerationModel, cfg.Temperature, cfg.MaxTokens, nil)
	return qa.New(r, g, nil), nil
}

// openEngineIndex returns a query-ready index for the configured store. The
// in-memory store is built on the spot from the document source.
func openEngineIndex(ctx context.Context, cfg *config.Config, emb *embedding.Embedder) (domain.Index, func(), error) {
	if cfg.Store == config.StoreQdrant {
		store, err := openQdrant(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	index := storage.NewMemory(cfg.Distance)
	fmt.Println("Building in-memory index...")
	result, err := buildIndex(ctx, cfg, emb, index)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}
	fmt.Printf("Indexed %d documents (%d chunks) in %s\n\n",
		result.SuccessfulDocs, result.TotalChunks, result.Duration.Round(time.Millisecond))
	return index, func() {}, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store != config.StoreQdrant {
		return fmt.Errorf("the %q store is built per process; set RAG_STORE=qdrant to index ahead of time", cfg.Store)
	}

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	store, err := openQdrant(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !keepExisting {
		fmt.Println("Clearing existing collection...")
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
	}

	_, emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	fmt.Println("Indexing documents...")
	result, err := buildIndex(ctx, cfg, emb, store)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Index build complete")
	fmt.Printf("  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Printf("  Chunks:    %d\n", result.TotalChunks)
	fmt.Printf("  Duration:  %s\n", result.Duration.Round(time.Second))

	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Skipped documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s: %s\n", failed.SourceID, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	index, closeIndex, err := openEngineIndex(ctx, cfg, emb)
	if err != nil {
		return err
	}
	defer closeIndex()

	engine, err := newEngine(cfg, client, emb, index)
	if err != nil {
		return err
	}

	answer, err := engine.Ask(ctx, question)
	if err != nil {
		return err
	}

	printAnswer(answer)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	index, closeIndex, err := openEngineIndex(ctx, cfg, emb)
	if err != nil {
		return err
	}
	defer closeIndex()

	engine, err := newEngine(cfg, client, emb, index)
	if err != nil {
		return err
	}

	fmt.Println("RAG system ready. Ask questions (type 'quit' to exit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return nil
		}

		answer, err := engine.Ask(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printAnswer(answer)
	}
	return scanner.Err()
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store != config.StoreQdrant {
		fmt.Printf("Store: %s (built per process, nothing persisted)\n", cfg.Store)
		return nil
	}

	store, err := openQdrant(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("qdrant unhealthy: %w", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Store:      qdrant (%s:%d, collection %q)\n", cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
	fmt.Printf("Health:     ok\n")
	fmt.Printf("Chunks:     %d\n", count)
	return nil
}

func printAnswer(answer *domain.Answer) {
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range answer.Sources {
			fmt.Printf("  %d. %s (chunk %d, score %.2f)\n", i+1, src.SourceID, src.Index, src.Score)
		}
	}
	fmt.Println("\nAnswer:")
	fmt.Println(answer.Text)
}
