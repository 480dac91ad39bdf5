package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"notebook-ai/internal/config"
	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/embed"
	"notebook-ai/internal/flow"
	"notebook-ai/internal/http"
	"notebook-ai/internal/ingest"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/rag"
	"notebook-ai/internal/source"
	"notebook-ai/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Load the corpus snapshot
	corpus, err := source.NewStore(cfg.DataPath)
	if err != nil {
		log.Fatalf("Failed to load corpus snapshot: %v", err)
	}
	slog.Info("Corpus loaded", "path", cfg.DataPath, "sources", corpus.Count())

	ctx := contextutil.WithLogger(context.Background(), logger)

	// Probe vector store backends in preference order
	vectors := vectorstore.Select(ctx, vectorstore.Options{
		QdrantURL:        cfg.QdrantURL,
		QdrantCollection: cfg.QdrantCollection,
		SQLitePath:       cfg.VectorDBPath,
		Dim:              cfg.LocalEmbedDim,
	})

	// Embedding chain: OpenAI, then Gemini, then the offline hash embedder.
	// The single-text query path goes through the LRU cache.
	chain := embed.NewChain(
		embed.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel),
		embed.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiEmbedModel),
		embed.NewLocalProvider(cfg.LocalEmbedDim),
	)
	embedder := embed.NewCachedProvider(chain, embed.NewCache(cfg.EmbedCacheSize))
	slog.Info("Embedding chain initialized", "tiers", chain.Name(), "cache_size", cfg.EmbedCacheSize)

	retriever := rag.NewRetriever(corpus, embedder, vectors,
		cfg.RetrievalMinK, cfg.RetrievalMaxK, cfg.EmbedBatchSize)

	// Generation chain mirrors the embedding chain; the local tier is
	// extractive and never fails.
	generator := llm.NewFallback(cfg.MinGenLen,
		llm.NewOpenAIGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel),
		llm.NewGeminiGenerator(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel),
		llm.LocalGenerator{},
	)

	pipeline := ingest.NewPipeline(corpus)
	orchestrator := flow.NewOrchestrator(corpus, retriever, generator,
		cfg.FlowContextK, cfg.CitationSnippetLen)

	deps := &http.Deps{
		Corpus:       corpus,
		Pipeline:     pipeline,
		Retriever:    retriever,
		Generator:    generator,
		Orchestrator: orchestrator,
		Vectors:      vectors,
		SnippetLen:   cfg.CitationSnippetLen,
	}
	router := http.NewRouter(deps)

	// Backfill missing chunk vectors in the background after startup; the
	// retriever also backfills lazily per query, so this is a warm start,
	// not a prerequisite.
	go func() {
		backfillCtx := contextutil.WithLogger(context.Background(), logger)
		if err := retriever.Backfill(backfillCtx, corpus.Select(nil)); err != nil {
			slog.Warn("Background embedding backfill incomplete", "error", err)
		} else {
			slog.Info("Background embedding backfill finished")
		}
	}()

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr, "vector_backend", vectors.Name())
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
