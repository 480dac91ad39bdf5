package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/ingest"
	"notebook-ai/internal/source"
)

// SourcesHandler serves the source CRUD surface.
type SourcesHandler struct {
	corpus   *source.Store
	pipeline *ingest.Pipeline
}

// NewSourcesHandler creates a new SourcesHandler.
func NewSourcesHandler(corpus *source.Store, pipeline *ingest.Pipeline) *SourcesHandler {
	return &SourcesHandler{corpus: corpus, pipeline: pipeline}
}

// SourceSummary is the list-view shape of a source: everything except the
// full text and per-chunk payloads.
type SourceSummary struct {
	ID        string            `json:"id"`
	Type      source.Type       `json:"type"`
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	Keywords  []string          `json:"keywords"`
	Chunks    int               `json:"chunks"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func toSummary(s *source.Source) SourceSummary {
	return SourceSummary{
		ID:        s.ID,
		Type:      s.Type,
		Name:      s.Name,
		URL:       s.URL,
		Meta:      s.Meta,
		Keywords:  s.Keywords,
		Chunks:    len(s.Chunks),
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// List returns every source without its full text.
func (h *SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sources := h.corpus.List()
	summaries := make([]SourceSummary, len(sources))
	for i, s := range sources {
		summaries[i] = toSummary(s)
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"sources": summaries})
}

// Create ingests a new source.
func (h *SourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ingest.Request
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		writeError(ctx, w, http.StatusBadRequest, "Source type is required")
		return
	}

	src, err := h.pipeline.Ingest(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to ingest source")
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"source": src})
}

// Get returns one source in full, chunks included.
func (h *SourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	src, err := h.corpus.Get(id)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Source not found")
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "Failed to load source")
		return
	}
	writeJSON(ctx, w, http.StatusOK, src)
}
