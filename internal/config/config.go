// Package config reads pipeline configuration from environment variables.
// Every option has a documented default; Validate enforces the constraints
// the chunker and retriever depend on.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bull/rag-pipeline/internal/domain"
)

// Store backend selectors.
const (
	StoreMemory = "memory"
	StoreQdrant = "qdrant"
)

// Config holds all recognized options.
type Config struct {
	// Chunking
	ChunkSize    int // RAG_CHUNK_SIZE, characters per chunk (default 500)
	ChunkOverlap int // RAG_CHUNK_OVERLAP, characters shared between windows (default 50)

	// Retrieval
	TopK     int     // RAG_TOP_K, chunks per retrieval (default 3)
	MinScore float64 // RAG_MIN_SCORE, relevance threshold, 0 disables (default 0.30)

	// Models
	EmbeddingModel  string        // RAG_EMBEDDING_MODEL (default text-embedding-3-small)
	EmbeddingDim    int           // RAG_EMBEDDING_DIM (default 1536)
	EmbeddingBatch  int           // RAG_EMBEDDING_BATCH, texts per provider call (default 100)
	GenerationModel string        // RAG_GENERATION_MODEL (default gpt-4.1-mini)
	Temperature     float64       // RAG_TEMPERATURE (default 0.7)
	MaxTokens       int           // RAG_MAX_TOKENS, completion budget (default 500)
	RequestTimeout  time.Duration // RAG_REQUEST_TIMEOUT (default 30s)
	OpenAIAPIKey    string        // OPENAI_API_KEY (required for network commands)
	OpenAIBaseURL   string        // OPENAI_BASE_URL, for OpenAI-compatible endpoints

	// Vector store
	Store            string          // RAG_STORE, "memory" or "qdrant" (default memory)
	Distance         domain.Distance // RAG_DISTANCE, "cosine" or "l2" (default cosine)
	QdrantHost       string          // QDRANT_HOST (default localhost)
	QdrantPort       int             // QDRANT_PORT, gRPC port (default 6334)
	QdrantCollection string          // QDRANT_COLLECTION (default rag_chunks)

	// Document sources
	DocsDir    string   // RAG_DOCS_DIR, local directory (default documents)
	Extensions []string // RAG_EXTENSIONS, comma-separated (default .txt,.md)
	GitHubRepo string   // RAG_GITHUB_REPO, "owner/name"; empty uses DocsDir
	GitHubPath string   // RAG_GITHUB_PATH, directory within the repository
}

// FromEnv builds a Config from the environment, applying defaults for
// anything unset.
func FromEnv() *Config {
	return &Config{
		ChunkSize:    getEnvInt("RAG_CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("RAG_CHUNK_OVERLAP", 50),

		TopK:     getEnvInt("RAG_TOP_K", 3),
		MinScore: getEnvFloat("RAG_MIN_SCORE", 0.30),

		EmbeddingModel:  getEnv("RAG_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:    getEnvInt("RAG_EMBEDDING_DIM", 1536),
		EmbeddingBatch:  getEnvInt("RAG_EMBEDDING_BATCH", 100),
		GenerationModel: getEnv("RAG_GENERATION_MODEL", "gpt-4.1-mini"),
		Temperature:     getEnvFloat("RAG_TEMPERATURE", 0.7),
		MaxTokens:       getEnvInt("RAG_MAX_TOKENS", 500),
		RequestTimeout:  getEnvDuration("RAG_REQUEST_TIMEOUT", 30*time.Second),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),

		Store:            getEnv("RAG_STORE", StoreMemory),
		Distance:         domain.Distance(getEnv("RAG_DISTANCE", string(domain.DistanceCosine))),
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "rag_chunks"),

		DocsDir:    getEnv("RAG_DOCS_DIR", "documents"),
		Extensions: splitList(getEnv("RAG_EXTENSIONS", ".txt,.md")),
		GitHubRepo: os.Getenv("RAG_GITHUB_REPO"),
		GitHubPath: os.Getenv("RAG_GITHUB_PATH"),
	}
}

// Validate checks the constraints the pipeline depends on. All violations
// wrap domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap must satisfy 0 <= overlap < chunk size, got overlap=%d size=%d",
			domain.ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", domain.ErrInvalidConfig, c.TopK)
	}
	if c.MinScore < 0 {
		return fmt.Errorf("%w: min score must be >= 0, got %g", domain.ErrInvalidConfig, c.MinScore)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", domain.ErrInvalidConfig, c.EmbeddingDim)
	}
	if c.EmbeddingBatch < 1 {
		return fmt.Errorf("%w: embedding batch size must be >= 1, got %d", domain.ErrInvalidConfig, c.EmbeddingBatch)
	}
	switch c.Store {
	case StoreMemory, StoreQdrant:
	default:
		return fmt.Errorf("%w: unknown store %q", domain.ErrInvalidConfig, c.Store)
	}
	switch c.Distance {
	case domain.DistanceCosine, domain.DistanceL2:
	default:
		return fmt.Errorf("%w: unknown distance %q", domain.ErrInvalidConfig, c.Distance)
	}
	if c.GitHubRepo != "" && len(strings.Split(c.GitHubRepo, "/")) != 2 {
		return fmt.Errorf("%w: RAG_GITHUB_REPO must be owner/name, got %q", domain.ErrInvalidConfig, c.GitHubRepo)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
