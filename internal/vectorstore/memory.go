package vectorstore

import (
	"context"
	"sort"
	"sync"

	"notebook-ai/internal/embed"
)

// MemoryStore is the in-process fallback backend: records held in a map,
// similarity by brute-force cosine scan. Always available.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string // chunk IDs in insertion order, for stable iteration
}

// NewMemoryStore creates an empty in-memory backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Name identifies this backend.
func (s *MemoryStore) Name() string { return "memory" }

// Upsert overwrites records by chunk identity.
func (s *MemoryStore) Upsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if _, ok := s.records[rec.ChunkID]; !ok {
			s.order = append(s.order, rec.ChunkID)
		}
		s.records[rec.ChunkID] = rec
	}
	return nil
}

// QueryTopK linear-scans all records, scoring by cosine similarity.
func (s *MemoryStore) QueryTopK(_ context.Context, sourceIDs []string, query []float32, k int) ([]Scored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filter map[string]struct{}
	if len(sourceIDs) > 0 {
		filter = make(map[string]struct{}, len(sourceIDs))
		for _, id := range sourceIDs {
			filter[id] = struct{}{}
		}
	}

	scored := make([]Scored, 0, len(s.order))
	for _, chunkID := range s.order {
		rec := s.records[chunkID]
		if filter != nil {
			if _, ok := filter[rec.SourceID]; !ok {
				continue
			}
		}
		scored = append(scored, Scored{Record: rec, Score: embed.Cosine(rec.Vector, query)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of records held.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Reset drops every record.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	s.order = nil
	return nil
}
