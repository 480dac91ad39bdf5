package vectorstore

//go:generate mockgen -source=interface.go -destination=mocks/mock_store.go -package=mocks

import (
	"context"
	"time"
)

// Record is the durable projection of one embedded chunk. A backend is a
// derived index over these records, not the source of truth for chunk text.
type Record struct {
	ChunkID   string
	SourceID  string
	Text      string
	Vector    []float32
	Dim       int
	UpdatedAt time.Time
}

// Scored is a query hit: a record with its similarity to the query vector.
type Scored struct {
	Record Record
	Score  float64
}

// Store is the uniform contract all backends satisfy. Exactly one backend
// is active at a time, selected at startup.
type Store interface {
	// Name identifies the backend (memory, sqlite, qdrant).
	Name() string

	// Upsert overwrites records by chunk identity; idempotent.
	Upsert(ctx context.Context, records []Record) error

	// QueryTopK returns up to k records ranked by descending similarity to
	// the query vector, optionally restricted to the given owning source
	// IDs (nil means no restriction). Ties keep backend iteration order.
	QueryTopK(ctx context.Context, sourceIDs []string, query []float32, k int) ([]Scored, error)

	// Count returns the number of indexed records.
	Count(ctx context.Context) (int, error)

	// Reset clears all records; used when the embedding provider or
	// dimensionality changes.
	Reset(ctx context.Context) error
}
