package handlers

import (
	"context"
	"net/http"
	"time"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/source"
	"notebook-ai/internal/vectorstore"
)

// HealthHandler reports service health: corpus size plus the state of the
// active vector backend.
type HealthHandler struct {
	corpus       *source.Store
	vectors      vectorstore.Store
	checkTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(corpus *source.Store, vectors vectorstore.Store) *HealthHandler {
	return &HealthHandler{
		corpus:       corpus,
		vectors:      vectors,
		checkTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string   `json:"status"`
	Timestamp     string   `json:"timestamp"`
	Sources       int      `json:"sources"`
	VectorBackend string   `json:"vector_backend"`
	Vectors       int      `json:"vectors"`
	Issues        []string `json:"issues,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Sources:       h.corpus.Count(),
		VectorBackend: h.vectors.Name(),
	}

	count, err := h.vectors.Count(checkCtx)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "backend", h.vectors.Name(), "error", err)
		resp.Status = "degraded"
		resp.Issues = append(resp.Issues, "vector_store_unavailable")
	} else {
		resp.Vectors = count
	}

	// The service still answers through the TF-IDF tier when the vector
	// backend is down, so degraded is not a 503 here.
	writeJSON(ctx, w, http.StatusOK, resp)
}
