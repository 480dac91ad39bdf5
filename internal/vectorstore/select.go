package vectorstore

import (
	"context"

	"notebook-ai/internal/contextutil"
)

// Options carries the backend candidates probed at startup.
type Options struct {
	QdrantURL        string
	QdrantCollection string
	SQLitePath       string
	Dim              int
}

// Select probes backends in preference order and returns the first one that
// comes up: Qdrant when a URL is configured and reachable, then SQLite, then
// the in-memory store. A backend failing its probe is logged and skipped,
// never fatal.
func Select(ctx context.Context, opts Options) Store {
	logger := contextutil.LoggerFromContext(ctx)

	if opts.QdrantURL != "" {
		qs, err := NewQdrantStore(opts.QdrantURL, opts.QdrantCollection)
		if err == nil {
			err = qs.EnsureCollection(ctx, opts.Dim)
		}
		if err == nil {
			logger.InfoContext(ctx, "vector store selected", "backend", qs.Name(), "collection", opts.QdrantCollection)
			return qs
		}
		logger.WarnContext(ctx, "qdrant unavailable, falling back", "error", err)
	}

	if opts.SQLitePath != "" {
		ss, err := NewSQLiteStore(opts.SQLitePath)
		if err == nil {
			logger.InfoContext(ctx, "vector store selected", "backend", ss.Name(), "path", opts.SQLitePath)
			return ss
		}
		logger.WarnContext(ctx, "sqlite unavailable, falling back", "error", err)
	}

	ms := NewMemoryStore()
	logger.InfoContext(ctx, "vector store selected", "backend", ms.Name())
	return ms
}
