package handlers

import (
	"net/http"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/flow"
)

// FlowsHandler runs multi-step generation flows.
type FlowsHandler struct {
	orchestrator *flow.Orchestrator
}

// NewFlowsHandler creates a new FlowsHandler.
func NewFlowsHandler(orchestrator *flow.Orchestrator) *FlowsHandler {
	return &FlowsHandler{orchestrator: orchestrator}
}

// FlowRequest names the steps to run, in order. An empty step list runs the
// default study flow.
type FlowRequest struct {
	Steps     []string          `json:"steps,omitempty"`
	SourceIDs []string          `json:"source_ids,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
}

// defaultFlowSteps is the built-in study flow.
var defaultFlowSteps = []string{"summarize", "outline_slides", "quiz"}

// Run executes a flow.
func (h *FlowsHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req FlowRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	steps := req.Steps
	if len(steps) == 0 {
		steps = defaultFlowSteps
	}

	result, err := h.orchestrator.Run(ctx, steps, req.SourceIDs, req.Options)
	if err != nil {
		logger.WarnContext(ctx, "flow rejected", "error", err)
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

// Catalog lists the runnable step ids.
func (h *FlowsHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"steps":        flow.StepIDs(),
		"default_flow": defaultFlowSteps,
	})
}
