package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested source does not exist.
var ErrNotFound = errors.New("source not found")

// snapshot is the on-disk shape of the corpus. Saves are all-or-nothing:
// the file is replaced atomically so readers never observe a partial write.
type snapshot struct {
	Sources   []*Source     `json:"sources"`
	Embedding EmbeddingMeta `json:"embedding,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store owns the in-memory corpus and its JSON snapshot file. The service
// assumes a single logical writer; the mutex covers concurrent HTTP readers.
type Store struct {
	mu        sync.RWMutex
	path      string
	sources   []*Source
	byID      map[string]*Source
	embedding EmbeddingMeta
	createdAt time.Time
}

// NewStore creates a store backed by the snapshot file at path. A missing
// file yields an empty corpus, not an error.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:      path,
		byID:      make(map[string]*Source),
		createdAt: time.Now().UTC(),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	s.sources = snap.Sources
	s.embedding = snap.Embedding
	if !snap.CreatedAt.IsZero() {
		s.createdAt = snap.CreatedAt
	}
	for _, src := range s.sources {
		s.byID[src.ID] = src
	}
	return nil
}

// Save writes the full corpus snapshot to disk. The write goes through a
// temp file and rename so a crash mid-save leaves the previous snapshot
// intact.
func (s *Store) Save() error {
	s.mu.RLock()
	snap := snapshot{
		Sources:   s.sources,
		Embedding: s.embedding,
		CreatedAt: s.createdAt,
		UpdatedAt: time.Now().UTC(),
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Add appends a new source to the corpus.
func (s *Store) Add(src *Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, src)
	s.byID[src.ID] = src
}

// Get returns the source with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return src, nil
}

// List returns all sources in insertion order.
func (s *Store) List() []*Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Source, len(s.sources))
	copy(out, s.sources)
	return out
}

// Select returns the sources matching the given IDs in corpus order.
// A nil or empty ID list selects every source. Unknown IDs are skipped.
func (s *Store) Select(ids []string) []*Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(ids) == 0 {
		out := make([]*Source, len(s.sources))
		copy(out, s.sources)
		return out
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*Source
	for _, src := range s.sources {
		if _, ok := want[src.ID]; ok {
			out = append(out, src)
		}
	}
	return out
}

// Count returns the number of sources in the corpus.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// SetChunkVector attaches a dense vector to one chunk. The chunk text is
// immutable; only the vector changes, and the owning source's updated_at
// moves forward.
func (s *Store) SetChunkVector(sourceID, chunkID string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.byID[sourceID]
	if !ok {
		return ErrNotFound
	}
	for i := range src.Chunks {
		if src.Chunks[i].ID == chunkID {
			src.Chunks[i].Vector = vec
			src.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("chunk %s not found in source %s", chunkID, sourceID)
}

// Embedding returns the recorded embedding epoch for the corpus.
func (s *Store) Embedding() EmbeddingMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embedding
}

// SetEmbedding records the embedding epoch. When the provider or
// dimensionality changes, every previously attached vector is discarded:
// vectors from different epochs must never be compared.
func (s *Store) SetEmbedding(meta EmbeddingMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embedding.Matches(meta.Provider, meta.Dim) {
		return
	}
	s.embedding = meta
	for _, src := range s.sources {
		for i := range src.Chunks {
			src.Chunks[i].Vector = nil
		}
	}
}
