package source

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testSource(id, name, text string) *Source {
	return &Source{
		ID:   id,
		Type: TypeText,
		Name: name,
		Text: text,
		Chunks: []Chunk{
			{ID: id + "-c0", SourceID: id, Index: 0, Text: text},
		},
		Keywords:  []string{"test"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestStore_MissingSnapshotIsEmpty(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "notebook.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %d, want 0", store.Count())
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notebook.json")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	src := testSource("s1", "Notes", "Cats purr when content.")
	src.Chunks[0].Vector = []float32{0.5, 0.25}
	store.Add(src)
	store.SetEmbedding(EmbeddingMeta{Provider: "local-trigram", Dim: 2})
	if err := store.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() reload error = %v", err)
	}
	if reloaded.Count() != 1 {
		t.Fatalf("reloaded Count() = %d, want 1", reloaded.Count())
	}
	got, err := reloaded.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Notes" || got.Text != "Cats purr when content." {
		t.Errorf("unexpected source: %+v", got)
	}
	if len(got.Chunks) != 1 || !got.Chunks[0].Embedded() {
		t.Errorf("chunk vector did not survive the round trip: %+v", got.Chunks)
	}
	if meta := reloaded.Embedding(); !meta.Matches("local-trigram", 2) {
		t.Errorf("Embedding() = %+v, want local-trigram/2", meta)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "notebook.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_Select(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "notebook.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	store.Add(testSource("s1", "A", "a"))
	store.Add(testSource("s2", "B", "b"))
	store.Add(testSource("s3", "C", "c"))

	tests := []struct {
		name    string
		ids     []string
		wantIDs []string
	}{
		{name: "nil selects all", ids: nil, wantIDs: []string{"s1", "s2", "s3"}},
		{name: "empty selects all", ids: []string{}, wantIDs: []string{"s1", "s2", "s3"}},
		{name: "subset keeps corpus order", ids: []string{"s3", "s1"}, wantIDs: []string{"s1", "s3"}},
		{name: "unknown ids skipped", ids: []string{"s2", "nope"}, wantIDs: []string{"s2"}},
		{name: "all unknown", ids: []string{"nope"}, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.Select(tt.ids)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Select() returned %d sources, want %d", len(got), len(tt.wantIDs))
			}
			for i, src := range got {
				if src.ID != tt.wantIDs[i] {
					t.Errorf("Select()[%d].ID = %s, want %s", i, src.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestStore_SetChunkVector(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "notebook.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	store.Add(testSource("s1", "A", "a"))

	if err := store.SetChunkVector("s1", "s1-c0", []float32{1, 0}); err != nil {
		t.Fatalf("SetChunkVector() error = %v", err)
	}
	src, _ := store.Get("s1")
	if !src.Chunks[0].Embedded() {
		t.Error("chunk should carry a vector after SetChunkVector")
	}

	if err := store.SetChunkVector("missing", "c", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetChunkVector(missing source) error = %v, want ErrNotFound", err)
	}
	if err := store.SetChunkVector("s1", "missing", nil); err == nil {
		t.Error("SetChunkVector(missing chunk) should fail")
	}
}

func TestStore_SetEmbeddingInvalidatesVectors(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "notebook.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	src := testSource("s1", "A", "a")
	src.Chunks[0].Vector = []float32{1, 0}
	store.Add(src)
	store.SetEmbedding(EmbeddingMeta{Provider: "openai/text-embedding-3-small", Dim: 2})

	// Re-recording the same epoch keeps the vectors.
	if err := store.SetChunkVector("s1", "s1-c0", []float32{0, 1}); err != nil {
		t.Fatalf("SetChunkVector() error = %v", err)
	}
	store.SetEmbedding(EmbeddingMeta{Provider: "openai/text-embedding-3-small", Dim: 2})
	if got, _ := store.Get("s1"); !got.Chunks[0].Embedded() {
		t.Error("matching epoch must not discard vectors")
	}

	// A new epoch discards every attached vector.
	store.SetEmbedding(EmbeddingMeta{Provider: "local-trigram", Dim: 768})
	if got, _ := store.Get("s1"); got.Chunks[0].Embedded() {
		t.Error("changed epoch must discard vectors")
	}
	if meta := store.Embedding(); !meta.Matches("local-trigram", 768) {
		t.Errorf("Embedding() = %+v, want local-trigram/768", meta)
	}
}
