package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/ingest"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/source"
)

const summaryPromptTextLimit = 6000

// SummaryHandler produces a per-source digest: layered summaries plus the
// source's extracted keywords.
type SummaryHandler struct {
	corpus    *source.Store
	generator *llm.Fallback
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(corpus *source.Store, generator *llm.Fallback) *SummaryHandler {
	return &SummaryHandler{corpus: corpus, generator: generator}
}

// SummaryResponse is the per-source digest.
type SummaryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	Summaries Summaries `json:"summaries"`
	Keywords  []string  `json:"keywords"`
	Degraded  bool      `json:"degraded"`
}

func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
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

	text := src.Text
	if runes := []rune(text); len(runes) > summaryPromptTextLimit {
		text = string(runes[:summaryPromptTextLimit])
	}
	system := "You are a knowledge distillation engine. Summarize the material in layers and extract its key concepts."
	user := fmt.Sprintf("Source name: %s\n\nText:\n%s\n\nProduce:\n- A short, a medium and a detailed summary\n- The key concepts", src.Name, text)

	summary, origin, err := h.generator.GenerateWithOrigin(ctx, system, user, llm.FormatText)
	degraded := err != nil || origin == (llm.LocalGenerator{}).Name()
	if err != nil {
		logger.WarnContext(ctx, "summary generation failed, using extractive fallback", "source_id", id, "error", err)
		summary = ingest.FirstSentences(src.Text, 12)
	}

	writeJSON(ctx, w, http.StatusOK, SummaryResponse{
		ID:      src.ID,
		Name:    src.Name,
		Summary: summary,
		Summaries: Summaries{
			Short:  ingest.FirstSentences(src.Text, 2),
			Medium: ingest.FirstSentences(src.Text, 5),
			Long:   ingest.FirstSentences(src.Text, 12),
		},
		Keywords: ingest.TopKeywords(src.Text, 10),
		Degraded: degraded,
	})
}
