package domain

import "errors"

// Sentinel errors for the pipeline. Components wrap these with %w so callers
// can classify failures with errors.Is without parsing provider internals.
var (
	ErrEmbeddingService  = errors.New("embedding service failure")
	ErrGenerationService = errors.New("generation service failure")
	ErrIndexNotReady     = errors.New("vector index is empty")
	ErrTimeout           = errors.New("request deadline exceeded")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrStoreUnreachable  = errors.New("vector store unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
