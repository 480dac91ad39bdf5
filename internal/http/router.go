package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notebook-ai/internal/flow"
	"notebook-ai/internal/handlers"
	"notebook-ai/internal/ingest"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/rag"
	"notebook-ai/internal/source"
	"notebook-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Corpus       *source.Store
	Pipeline     *ingest.Pipeline
	Retriever    *rag.Retriever
	Generator    *llm.Fallback
	Orchestrator *flow.Orchestrator
	Vectors      vectorstore.Store
	SnippetLen   int
}

// NewRouter creates the HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	healthHandler := handlers.NewHealthHandler(deps.Corpus, deps.Vectors)
	sourcesHandler := handlers.NewSourcesHandler(deps.Corpus, deps.Pipeline)
	summaryHandler := handlers.NewSummaryHandler(deps.Corpus, deps.Generator)
	askHandler := handlers.NewAskHandler(deps.Corpus, deps.Retriever, deps.Generator, deps.SnippetLen)
	generateHandler := handlers.NewGenerateHandler(deps.Orchestrator)
	flowsHandler := handlers.NewFlowsHandler(deps.Orchestrator)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Get("/sources", sourcesHandler.List)
		r.Post("/sources", sourcesHandler.Create)
		r.Get("/sources/{id}", sourcesHandler.Get)
		r.Method(http.MethodGet, "/sources/{id}/summary", summaryHandler)

		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/generate", generateHandler)

		r.Get("/flows", flowsHandler.Catalog)
		r.Post("/flows", flowsHandler.Run)
	})

	return r
}
