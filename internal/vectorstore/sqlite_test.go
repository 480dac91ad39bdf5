package vectorstore

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	records := []Record{
		{ChunkID: "c1", SourceID: "s1", Text: "cats purr", Vector: []float32{0.5, -0.25, 1}, Dim: 3, UpdatedAt: time.Now().UTC()},
		{ChunkID: "c2", SourceID: "s1", Text: "dogs bark", Vector: []float32{0, 1, 0}, Dim: 3, UpdatedAt: time.Now().UTC()},
	}
	if err := store.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	hits, err := store.QueryTopK(ctx, nil, []float32{0.5, -0.25, 1}, 1)
	if err != nil {
		t.Fatalf("QueryTopK() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	got := hits[0].Record
	if got.ChunkID != "c1" || got.SourceID != "s1" || got.Text != "cats purr" {
		t.Errorf("unexpected record: %+v", got)
	}
	if !reflect.DeepEqual(got.Vector, records[0].Vector) {
		t.Errorf("vector round trip: got %v, want %v", got.Vector, records[0].Vector)
	}
}

func TestSQLiteStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	rec := Record{ChunkID: "c1", SourceID: "s1", Text: "old", Vector: []float32{1, 0}, Dim: 2, UpdatedAt: time.Now().UTC()}
	if err := store.Upsert(ctx, []Record{rec}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	rec.Text = "new"
	rec.Vector = []float32{0, 1}
	if err := store.Upsert(ctx, []Record{rec}); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}

	hits, err := store.QueryTopK(ctx, nil, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("QueryTopK() error = %v", err)
	}
	if hits[0].Record.Text != "new" {
		t.Errorf("Text = %q, want new", hits[0].Record.Text)
	}
}

func TestSQLiteStore_SourceFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	records := []Record{
		{ChunkID: "c1", SourceID: "s1", Text: "a", Vector: []float32{1, 0}, Dim: 2, UpdatedAt: time.Now().UTC()},
		{ChunkID: "c2", SourceID: "s2", Text: "b", Vector: []float32{1, 0}, Dim: 2, UpdatedAt: time.Now().UTC()},
	}
	if err := store.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	hits, err := store.QueryTopK(ctx, []string{"s2"}, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("QueryTopK() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Record.SourceID != "s2" {
		t.Errorf("filter failed: %+v", hits)
	}
}

func TestSQLiteStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if err := store.Upsert(ctx, []Record{
		{ChunkID: "c1", SourceID: "s1", Text: "a", Vector: []float32{1}, Dim: 1, UpdatedAt: time.Now().UTC()},
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after Reset = %d, want 0", count)
	}
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{name: "empty", vec: nil},
		{name: "single", vec: []float32{3.14}},
		{name: "mixed signs", vec: []float32{-1.5, 0, 2.25, -0.001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesToFloat32Slice(float32SliceToBytes(tt.vec))
			if !reflect.DeepEqual(got, tt.vec) {
				t.Errorf("round trip = %v, want %v", got, tt.vec)
			}
		})
	}
}
