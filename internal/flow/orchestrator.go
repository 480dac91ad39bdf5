package flow

import (
	"context"
	"fmt"
	"strings"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/rag"
	"notebook-ai/internal/source"
)

const stepCitationMax = 6

// StepResult is the outcome of one flow step.
type StepResult struct {
	ID        string            `json:"id"`
	Output    string            `json:"output"`
	Degraded  bool              `json:"degraded"`
	Citations []source.Citation `json:"citations"`
}

// Result is the outcome of a whole flow run.
type Result struct {
	Steps     []StepResult      `json:"steps"`
	Citations []source.Citation `json:"citations"`
}

// Orchestrator runs flows: it retrieves context once, then executes the
// steps in order, feeding each step the output of the previous one.
type Orchestrator struct {
	corpus     *source.Store
	retriever  *rag.Retriever
	generator  *llm.Fallback
	contextK   int
	snippetLen int
}

// NewOrchestrator wires a flow orchestrator. contextK is the breadth of the
// shared retrieval; snippetLen bounds citation snippets.
func NewOrchestrator(corpus *source.Store, retriever *rag.Retriever, generator *llm.Fallback, contextK, snippetLen int) *Orchestrator {
	if contextK <= 0 {
		contextK = 16
	}
	return &Orchestrator{
		corpus:     corpus,
		retriever:  retriever,
		generator:  generator,
		contextK:   contextK,
		snippetLen: snippetLen,
	}
}

// Run executes the given steps over the selected sources. Unknown step ids
// fail the whole flow before any generation happens. A step whose generator
// output is degraded falls back to its deterministic placeholder and the
// flow keeps going; the run itself only fails on an invalid request.
func (o *Orchestrator) Run(ctx context.Context, stepIDs []string, sourceIDs []string, options map[string]string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(stepIDs) == 0 {
		return nil, fmt.Errorf("flow has no steps")
	}
	resolved := make([]Step, len(stepIDs))
	for i, id := range stepIDs {
		step, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown flow step %q", id)
		}
		resolved[i] = step
	}

	selected := o.corpus.Select(sourceIDs)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no sources to run the flow over")
	}
	title := selected[0].Name

	// One broad retrieval shared by every step. The query is the corpus's
	// own vocabulary: source names plus their extracted keywords.
	hits, err := o.retriever.Retrieve(ctx, broadQuery(selected), sourceIDs, o.contextK)
	if err != nil {
		logger.WarnContext(ctx, "flow context retrieval failed, using source text", "error", err)
	}
	contextBlock := formatContext(selected, hits)
	citedSources := sourcesForHits(selected, hits)

	result := &Result{Steps: make([]StepResult, 0, len(resolved))}
	previous := ""
	for _, step := range resolved {
		in := StepInput{
			Title:    title,
			Sources:  selected,
			Context:  contextBlock,
			Previous: previous,
			Options:  options,
		}
		system, user := step.Prompt(in)

		output, origin, err := o.generator.GenerateWithOrigin(ctx, system, user, step.Format)
		degraded := err != nil || origin == (llm.LocalGenerator{}).Name()
		if degraded {
			output = step.Placeholder(in)
			logger.InfoContext(ctx, "flow step degraded to placeholder", "step", step.ID)
		}

		citations := rag.PickCitations(citedSources, title+" "+step.ID, output, stepCitationMax, o.snippetLen)
		result.Steps = append(result.Steps, StepResult{
			ID:        step.ID,
			Output:    output,
			Degraded:  degraded,
			Citations: citations,
		})
		result.Citations = append(result.Citations, citations...)
		previous = output
	}
	result.Citations = rag.DedupCitations(result.Citations)
	return result, nil
}

func broadQuery(sources []*source.Source) string {
	var parts []string
	for _, s := range sources {
		parts = append(parts, s.Name)
		parts = append(parts, s.Keywords...)
	}
	return strings.Join(parts, " ")
}

// formatContext renders retrieved chunks grouped by their owning source; if
// retrieval came back empty it falls back to the leading text of each source.
func formatContext(sources []*source.Source, hits []rag.Hit) string {
	names := make(map[string]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}

	if len(hits) == 0 {
		var sb strings.Builder
		for i, s := range sources {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			fmt.Fprintf(&sb, "[Source %d: %s]\n%s", i+1, s.Name, truncate(s.Text, 4000))
		}
		return sb.String()
	}

	grouped := make(map[string][]string)
	var order []string
	for _, h := range hits {
		if _, ok := grouped[h.SourceID]; !ok {
			order = append(order, h.SourceID)
		}
		grouped[h.SourceID] = append(grouped[h.SourceID], h.Text)
	}

	var sb strings.Builder
	for i, id := range order {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		name := names[id]
		if name == "" {
			name = id
		}
		fmt.Fprintf(&sb, "[Source %d: %s]", i+1, name)
		for j, text := range grouped[id] {
			fmt.Fprintf(&sb, "\nPassage %d: %s", j+1, text)
		}
	}
	return sb.String()
}

// sourcesForHits narrows to the sources that actually contributed context,
// so citations never point at a source the answer never saw.
func sourcesForHits(sources []*source.Source, hits []rag.Hit) []*source.Source {
	if len(hits) == 0 {
		return sources
	}
	hit := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		hit[h.SourceID] = struct{}{}
	}
	out := make([]*source.Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := hit[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
