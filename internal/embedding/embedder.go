// Package embedding maps chunk texts to vectors via an OpenAI-compatible
// embedding model.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bull/rag-pipeline/internal/domain"
)

// DefaultBatchSize bounds texts per provider call. The API accepts up to
// 2048 inputs per request, but smaller batches reduce token-per-minute
// rate-limit pressure.
const DefaultBatchSize = 100

// embeddingsAPI is the slice of the OpenAI client the embedder needs,
// extracted so tests can substitute a stub.
type embeddingsAPI interface {
	New(ctx context.Context, body openai.EmbeddingNewParams, opts ...option.RequestOption) (*openai.CreateEmbeddingResponse, error)
}

// Embedder generates embeddings in order-preserving batches, retrying
// rate-limited calls with exponential backoff.
type Embedder struct {
	svc       embeddingsAPI
	model     string
	batchSize int
}

// NewEmbedder creates an Embedder using the given client and model. If
// batchSize is 0, DefaultBatchSize is used.
func NewEmbedder(client *Client, model string, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		svc:       &client.api.Embeddings,
		model:     model,
		batchSize: batchSize,
	}
}

// Embed returns one vector per input text, in input order. Batches larger
// than the configured limit are split across multiple provider calls. The
// call is all-or-nothing: any batch failure returns no vectors at all.
//
// Provider failures wrap domain.ErrEmbeddingService; exceeded deadlines wrap
// domain.ErrTimeout.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		vectors, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}

	// Uniform dimensionality is an index invariant; a provider response
	// violating it is malformed output.
	dim := len(all[0])
	for i, v := range all {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrEmbeddingService, i, len(v), dim)
		}
	}

	return all, nil
}

// embedBatchWithRetry embeds a single batch, retrying HTTP 429 with
// exponential backoff. Other failures are permanent.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := e.svc.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(classifyError(err))
		}

		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("%w: got %d embeddings for %d inputs",
				domain.ErrEmbeddingService, len(resp.Data), len(texts)))
		}

		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		if isRateLimitError(err) {
			return nil, classifyError(err)
		}
		return nil, err
	}
	return vectors, nil
}

// classifyError maps a provider error onto the pipeline error taxonomy.
func classifyError(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	if errors.Is(err, domain.ErrEmbeddingService) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrEmbeddingService, err)
}

// isTimeout reports whether err stems from an exceeded deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isRateLimitError checks for HTTP 429.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts the API's float64 vectors to the float32 the stores use.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
