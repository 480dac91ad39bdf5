package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/ingest"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/rag"
	"notebook-ai/internal/source"
)

const (
	defaultAskK    = 12
	askCitationMax = 6
)

const askSystemPrompt = "You are a knowledge distillation engine. Answer strictly from the provided passages, cite evidence, and structure the answer clearly."

// AskHandler answers questions over the corpus with citations and layered
// summaries.
type AskHandler struct {
	corpus     *source.Store
	retriever  *rag.Retriever
	generator  *llm.Fallback
	snippetLen int
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(corpus *source.Store, retriever *rag.Retriever, generator *llm.Fallback, snippetLen int) *AskHandler {
	return &AskHandler{
		corpus:     corpus,
		retriever:  retriever,
		generator:  generator,
		snippetLen: snippetLen,
	}
}

// AskRequest represents the question payload.
type AskRequest struct {
	Question  string   `json:"question"`
	SourceIDs []string `json:"source_ids,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

// AskResponse carries the answer, multi-length summaries and the evidence
// behind them.
type AskResponse struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Summaries Summaries         `json:"summaries"`
	Audiences Audiences         `json:"audiences"`
	Degraded  bool              `json:"degraded"`
	Citations []source.Citation `json:"citations"`
	Sources   []SourceRef       `json:"sources"`
}

// Summaries are sentence-bounded cuts of the answer.
type Summaries struct {
	Short  string `json:"short"`
	Medium string `json:"medium"`
	Long   string `json:"long"`
}

// Audiences are deterministic restylings of the answer for different
// readers, derived from the answer itself rather than a second generation.
type Audiences struct {
	Student string `json:"student"`
	Expert  string `json:"expert"`
	Child   string `json:"child"`
}

func buildAudiences(answer string) Audiences {
	short := ingest.FirstSentences(answer, 2)
	medium := ingest.FirstSentences(answer, 5)
	keywords := ingest.TopKeywords(answer, 6)
	return Audiences{
		Student: short + " Key points: " + strings.Join(keywords, ", ") + ".",
		Expert:  medium + " Methodology and assumptions are reflected in the answer.",
		Child:   short + " Think of it as a simple story.",
	}
}

// SourceRef names a source consulted for the answer.
type SourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(ctx, w, http.StatusBadRequest, "Question is required")
		return
	}

	k := req.TopK
	if k == 0 {
		k = defaultAskK
	}
	hits, err := h.retriever.Retrieve(ctx, req.Question, req.SourceIDs, k)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to retrieve context")
		return
	}

	selected := h.corpus.Select(req.SourceIDs)
	user := buildAskPrompt(req.Question, selected, hits)

	answer, origin, err := h.generator.GenerateWithOrigin(ctx, askSystemPrompt, user, llm.FormatText)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		writeError(ctx, w, http.StatusBadGateway, "Failed to generate answer")
		return
	}
	degraded := origin == (llm.LocalGenerator{}).Name()

	cited := citedSources(selected, hits)
	citations := rag.PickCitations(cited, req.Question, answer, askCitationMax, h.snippetLen)

	refs := make([]SourceRef, len(cited))
	for i, s := range cited {
		refs[i] = SourceRef{ID: s.ID, Name: s.Name}
	}

	writeJSON(ctx, w, http.StatusOK, AskResponse{
		Question: req.Question,
		Answer:   answer,
		Summaries: Summaries{
			Short:  ingest.FirstSentences(answer, 2),
			Medium: ingest.FirstSentences(answer, 5),
			Long:   answer,
		},
		Audiences: buildAudiences(answer),
		Degraded:  degraded,
		Citations: citations,
		Sources:   refs,
	})
}

// buildAskPrompt groups retrieved passages under their owning source. When
// retrieval finds nothing the leading text of each source stands in, so the
// generator always has material.
func buildAskPrompt(question string, sources []*source.Source, hits []rag.Hit) string {
	names := make(map[string]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}

	var sb strings.Builder
	if len(hits) == 0 {
		for i, s := range sources {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			text := s.Text
			if runes := []rune(text); len(runes) > 4000 {
				text = string(runes[:4000])
			}
			fmt.Fprintf(&sb, "[Source %d: %s]\n%s", i+1, s.Name, text)
		}
	} else {
		grouped := make(map[string][]string)
		var order []string
		for _, hit := range hits {
			if _, ok := grouped[hit.SourceID]; !ok {
				order = append(order, hit.SourceID)
			}
			grouped[hit.SourceID] = append(grouped[hit.SourceID], hit.Text)
		}
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
	}

	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nConstraints:\n- Use only the passages above as evidence\n- Answer in structured points, no speculation")
	return sb.String()
}

// citedSources narrows to sources that contributed at least one passage.
func citedSources(sources []*source.Source, hits []rag.Hit) []*source.Source {
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
