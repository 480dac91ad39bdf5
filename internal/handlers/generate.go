package handlers

import (
	"net/http"
	"strings"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/flow"
)

// GenerateHandler runs a single generation step (report, quiz, slides...)
// over the selected sources.
type GenerateHandler struct {
	orchestrator *flow.Orchestrator
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(orchestrator *flow.Orchestrator) *GenerateHandler {
	return &GenerateHandler{orchestrator: orchestrator}
}

// GenerateRequest selects the generation type and its inputs.
type GenerateRequest struct {
	Type      string            `json:"type"`
	SourceIDs []string          `json:"source_ids,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
}

func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		writeError(ctx, w, http.StatusBadRequest, "Generation type is required")
		return
	}
	if _, ok := flow.Lookup(req.Type); !ok {
		writeError(ctx, w, http.StatusBadRequest,
			"Unknown generation type, expected one of: "+strings.Join(flow.StepIDs(), ", "))
		return
	}

	result, err := h.orchestrator.Run(ctx, []string{req.Type}, req.SourceIDs, req.Options)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "type", req.Type, "error", err)
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	step := result.Steps[0]
	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"type":      step.ID,
		"text":      step.Output,
		"degraded":  step.Degraded,
		"citations": step.Citations,
	})
}
