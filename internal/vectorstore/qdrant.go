package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"notebook-ai/internal/contextutil"
)

// QdrantStore is the columnar vector-indexed backend: upserted records are
// ranked server-side by Qdrant's nearest-neighbor operator instead of a
// local scan.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dim        int
}

// NewQdrantStore creates a Qdrant-backed store. urlStr is the HTTP URL
// (e.g. "http://localhost:6333"); the gRPC port is derived from it.
func NewQdrantStore(urlStr, collection string) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// gRPC listens one above the HTTP port by convention.
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{client: client, collection: collection}, nil
}

// Name identifies this backend.
func (s *QdrantStore) Name() string { return "qdrant" }

// EnsureCollection checks connectivity and makes sure the collection exists
// with the expected vector size, recreating nothing that already matches.
// A size mismatch is an error: the caller decides whether to Reset.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dim int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		s.dim = dim
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	config := info.Config
	if config == nil || config.Params == nil {
		return fmt.Errorf("collection config is invalid")
	}
	vectorsConfig := config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return fmt.Errorf("collection vectors config is invalid")
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return fmt.Errorf("collection vector params are invalid")
	}
	if int(params.Size) != dim {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", dim, params.Size)
	}
	s.dim = dim
	return nil
}

// Upsert writes records as points; the chunk text travels in the payload so
// query results can be served without a corpus lookup.
func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	logger := contextutil.LoggerFromContext(ctx)
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		updatedAt := rec.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(rec.ChunkID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"source_id":  rec.SourceID,
				"text":       rec.Text,
				"dim":        rec.Dim,
				"updated_at": updatedAt.Format(time.RFC3339),
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "count", len(records), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// QueryTopK delegates ranking to Qdrant's nearest-neighbor query, filtered
// by owning-source membership when sourceIDs is non-empty.
func (s *QdrantStore) QueryTopK(ctx context.Context, sourceIDs []string, query []float32, k int) ([]Scored, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	queryReq := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(sourceIDs) > 0 {
		queryReq.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords("source_id", sourceIDs...),
			},
		}
	}

	scoredPoints, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to query points", "collection", s.collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to query points: %w", err)
	}

	results := make([]Scored, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		rec := Record{Dim: s.dim}
		if point.Id != nil {
			rec.ChunkID = point.Id.GetUuid()
		}
		if point.Payload != nil {
			if v, ok := point.Payload["source_id"]; ok {
				rec.SourceID = v.GetStringValue()
			}
			if v, ok := point.Payload["text"]; ok {
				rec.Text = v.GetStringValue()
			}
			if v, ok := point.Payload["dim"]; ok {
				rec.Dim = int(v.GetIntegerValue())
			}
			if v, ok := point.Payload["updated_at"]; ok {
				if t, err := time.Parse(time.RFC3339, v.GetStringValue()); err == nil {
					rec.UpdatedAt = t
				}
			}
		}
		results = append(results, Scored{Record: rec, Score: float64(point.Score)})
	}
	return results, nil
}

// Count returns the exact number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	exact := true
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Reset drops and recreates the collection at the recorded dimensionality.
func (s *QdrantStore) Reset(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if s.dim == 0 {
		return nil
	}
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	return nil
}
