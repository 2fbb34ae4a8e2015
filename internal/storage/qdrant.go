package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/rag-pipeline/internal/domain"
)

// upsertBatchSize bounds points per Qdrant upsert call.
const upsertBatchSize = 100

// Qdrant is a vector index backed by a Qdrant collection over gRPC. The
// collection's distance metric is fixed when the collection is created.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dim        int
	distance   domain.Distance
}

// NewQdrant connects to Qdrant and verifies health with exponential backoff,
// failing fast with domain.ErrStoreUnreachable if the server never responds.
func NewQdrant(host string, port int, collection string, dim int, distance domain.Distance) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	q := &Qdrant{
		client:     client,
		collection: collection,
		dim:        dim,
		distance:   distance,
	}

	if err := q.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnreachable, err)
	}
	return q, nil
}

// healthCheckWithRetry retries the health check with exponential backoff:
// 500ms initial, 10s max interval, 30s max elapsed.
func (q *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return q.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check.
func (q *Qdrant) Health(ctx context.Context) error {
	result, err := q.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection with the configured dimension and
// metric if it does not exist. Idempotent.
func (q *Qdrant) EnsureCollection(ctx context.Context) error {
	collections, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == q.collection {
			return nil
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dim),
			Distance: q.qdrantDistance(),
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Clear deletes all points by dropping and recreating the collection.
// Used for full re-index runs.
func (q *Qdrant) Clear(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return q.EnsureCollection(ctx)
}

// Close closes the gRPC connection.
func (q *Qdrant) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}

// Upsert stores entries, replacing any existing points with the same chunk
// ID. Batches of 100 with exponential backoff retry per batch.
func (q *Qdrant) Upsert(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for i, e := range entries {
		if len(e.Vector) != q.dim {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), q.dim)
		}
	}

	for i := 0; i < len(entries); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(entries))

		batch := entries[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, e := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(e.ID),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"source_id":   e.SourceID,
					"chunk_index": e.Index,
					"text":        e.Text,
				}),
			}
		}

		if err := q.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Query returns the top-K stored chunks by similarity to the query vector.
// Fails with domain.ErrIndexNotReady when the collection holds no points.
func (q *Qdrant) Query(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d", domain.ErrInvalidConfig, topK)
	}
	if len(vector) != q.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			domain.ErrDimensionMismatch, len(vector), q.dim)
	}

	count, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrIndexNotReady
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	chunks := make([]domain.ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		chunks = append(chunks, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:       result.Id.GetUuid(),
				SourceID: payload["source_id"].GetStringValue(),
				Index:    int(payload["chunk_index"].GetIntegerValue()),
				Text:     payload["text"].GetStringValue(),
			},
			Score: float64(result.Score),
		})
	}
	return chunks, nil
}

// Count returns the number of points in the collection.
func (q *Qdrant) Count(ctx context.Context) (int, error) {
	collection, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return int(collection.GetPointsCount()), nil
}

func (q *Qdrant) qdrantDistance() qdrant.Distance {
	if q.distance == domain.DistanceL2 {
		return qdrant.Distance_Euclid
	}
	return qdrant.Distance_Cosine
}
