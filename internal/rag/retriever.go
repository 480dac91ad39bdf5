package rag

import (
	"context"
	"fmt"
	"sort"
	"time"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/embed"
	"notebook-ai/internal/source"
	"notebook-ai/internal/tfidf"
	"notebook-ai/internal/vectorstore"
)

// Hit is one retrieved chunk with its relevance score. Scores from
// different tiers are not comparable with each other; only the ordering
// within a single retrieval is meaningful.
type Hit struct {
	ChunkID  string
	SourceID string
	Text     string
	Score    float64
}

// Retriever answers top-k queries over the corpus. It embeds lazily: chunks
// that have no vector at query time are embedded and upserted before the
// dense tiers run, so ingestion never blocks on a remote provider.
type Retriever struct {
	corpus   *source.Store
	embedder embed.Provider
	vectors  vectorstore.Store

	minK      int
	maxK      int
	batchSize int
}

// NewRetriever wires a retriever over the given corpus, embedding provider
// and vector store. minK and maxK bound the requested k; batchSize caps how
// many chunk texts go into a single embedding call.
func NewRetriever(corpus *source.Store, embedder embed.Provider, vectors vectorstore.Store, minK, maxK, batchSize int) *Retriever {
	if minK <= 0 {
		minK = 4
	}
	if maxK < minK {
		maxK = minK
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Retriever{
		corpus:    corpus,
		embedder:  embedder,
		vectors:   vectors,
		minK:      minK,
		maxK:      maxK,
		batchSize: batchSize,
	}
}

// ClampK folds an arbitrary requested k into the configured bounds.
func (r *Retriever) ClampK(k int) int {
	if k < r.minK {
		return r.minK
	}
	if k > r.maxK {
		return r.maxK
	}
	return k
}

// Retrieve returns up to k chunks relevant to the query, drawn from the
// given sources (all sources when sourceIDs is empty). Tiers are tried in
// order and the first one producing results wins: the vector store, then a
// local scan over vectors attached to chunks, then TF-IDF over raw text.
func (r *Retriever) Retrieve(ctx context.Context, query string, sourceIDs []string, k int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)
	k = r.ClampK(k)

	selected := r.corpus.Select(sourceIDs)
	if len(selected) == 0 {
		return nil, nil
	}

	queryVec, dim, provider := r.embedQuery(ctx, query)
	if queryVec != nil {
		// The epoch check must run even when every chunk already carries a
		// vector: a provider or width change would otherwise leave the old
		// records in place and rank them against an incompatible query.
		if err := r.ensureEpoch(ctx, provider, dim); err != nil {
			return nil, err
		}
		if err := r.Backfill(ctx, selected); err != nil {
			logger.WarnContext(ctx, "embedding backfill incomplete", "error", err)
		}

		hits, err := r.queryVectorStore(ctx, selected, queryVec, k)
		if err != nil {
			logger.WarnContext(ctx, "vector store query failed, falling back", "backend", r.vectors.Name(), "error", err)
		}
		if len(hits) > 0 {
			return hits, nil
		}

		hits = r.scanAttached(selected, queryVec, dim, k)
		if len(hits) > 0 {
			return hits, nil
		}
	}

	return r.rankSparse(selected, query, k), nil
}

// Backfill embeds every chunk of the given sources that lacks a vector and
// upserts the results. A provider or dimension change since the last run
// invalidates all stored vectors first.
func (r *Retriever) Backfill(ctx context.Context, sources []*source.Source) error {
	var pending []source.Chunk
	for _, src := range sources {
		for _, c := range src.Chunks {
			if !c.Embedded() {
				pending = append(pending, c)
			}
		}
	}
	if len(pending) == 0 {
		return nil
	}

	logger := contextutil.LoggerFromContext(ctx)
	logger.DebugContext(ctx, "backfilling chunk embeddings", "pending", len(pending))

	for start := 0; start < len(pending); start += r.batchSize {
		end := start + r.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		res, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunk batch: %w", err)
		}

		if err := r.ensureEpoch(ctx, res.Provider, res.Dim); err != nil {
			return err
		}

		records := make([]vectorstore.Record, len(batch))
		now := time.Now().UTC()
		for i, c := range batch {
			if err := r.corpus.SetChunkVector(c.SourceID, c.ID, res.Vectors[i]); err != nil {
				return fmt.Errorf("failed to record chunk vector: %w", err)
			}
			records[i] = vectorstore.Record{
				ChunkID:   c.ID,
				SourceID:  c.SourceID,
				Text:      c.Text,
				Vector:    res.Vectors[i],
				Dim:       res.Dim,
				UpdatedAt: now,
			}
		}
		if err := r.vectors.Upsert(ctx, records); err != nil {
			logger.WarnContext(ctx, "vector upsert failed", "backend", r.vectors.Name(), "error", err)
		}
		if err := r.corpus.Save(); err != nil {
			return fmt.Errorf("failed to persist corpus: %w", err)
		}
	}
	return nil
}

// ensureEpoch compares the active provider identity against the one the
// corpus was embedded with. On mismatch every stored vector is stale: the
// corpus drops its chunk vectors, the backend is reset and any cached query
// vectors are cleared, so the following backfill re-embeds from scratch.
func (r *Retriever) ensureEpoch(ctx context.Context, provider string, dim int) error {
	meta := r.corpus.Embedding()
	if meta.Matches(provider, dim) {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)
	if meta.Provider != "" {
		logger.InfoContext(ctx, "embedding identity changed, invalidating vectors",
			"old_provider", meta.Provider, "old_dim", meta.Dim,
			"new_provider", provider, "new_dim", dim)
		if err := r.vectors.Reset(ctx); err != nil {
			logger.WarnContext(ctx, "vector store reset failed", "backend", r.vectors.Name(), "error", err)
		}
		if c, ok := r.embedder.(interface{ ClearCache() }); ok {
			c.ClearCache()
		}
	}
	r.corpus.SetEmbedding(source.EmbeddingMeta{Provider: provider, Dim: dim})
	return nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, int, string) {
	res, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(res.Vectors) == 0 {
		logger := contextutil.LoggerFromContext(ctx)
		logger.WarnContext(ctx, "query embedding failed, dense tiers skipped", "error", err)
		return nil, 0, ""
	}
	return res.Vectors[0], res.Dim, res.Provider
}

func (r *Retriever) queryVectorStore(ctx context.Context, selected []*source.Source, queryVec []float32, k int) ([]Hit, error) {
	ids := make([]string, len(selected))
	for i, src := range selected {
		ids[i] = src.ID
	}
	scored, err := r.vectors.QueryTopK(ctx, ids, queryVec, k)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		hits = append(hits, Hit{
			ChunkID:  s.Record.ChunkID,
			SourceID: s.Record.SourceID,
			Text:     s.Record.Text,
			Score:    s.Score,
		})
	}
	return hits, nil
}

// scanAttached ranks by cosine over vectors persisted on the chunks
// themselves. It covers the window where the backend lost its data (a
// restart of the in-memory store, a wiped collection) but the corpus
// snapshot still has vectors.
func (r *Retriever) scanAttached(selected []*source.Source, queryVec []float32, dim int, k int) []Hit {
	var hits []Hit
	for _, src := range selected {
		for _, c := range src.Chunks {
			if !c.Embedded() || len(c.Vector) != dim {
				continue
			}
			score := embed.Cosine(queryVec, c.Vector)
			if score <= 0 {
				continue
			}
			hits = append(hits, Hit{ChunkID: c.ID, SourceID: c.SourceID, Text: c.Text, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// rankSparse is the terminal tier: TF-IDF cosine over the chunk texts. It
// needs no vectors at all, so retrieval always returns something for a
// query that shares vocabulary with the corpus.
func (r *Retriever) rankSparse(selected []*source.Source, query string, k int) []Hit {
	var chunks []source.Chunk
	var texts []string
	for _, src := range selected {
		for _, c := range src.Chunks {
			chunks = append(chunks, c)
			texts = append(texts, c.Text)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	matches := tfidf.Rank(texts, query, k)
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		c := chunks[m.Index]
		hits = append(hits, Hit{ChunkID: c.ID, SourceID: c.SourceID, Text: c.Text, Score: m.Score})
	}
	return hits
}
