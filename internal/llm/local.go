package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"notebook-ai/internal/ingest"
)

const (
	localSummarySentences = 4
	localKeywordCount     = 8
)

// LocalGenerator is the deterministic last tier: it extracts leading
// sentences and keywords from the prompt itself. It needs no network and
// never fails, so a generation request always produces output.
type LocalGenerator struct{}

// Name identifies this generator.
func (LocalGenerator) Name() string { return "local-extractive" }

// Generate builds an extractive response from the prompts.
func (LocalGenerator) Generate(_ context.Context, system, user string, format Format) (string, error) {
	prompt := user
	if system != "" {
		prompt = system + "\n\n" + user
	}
	summary := ingest.FirstSentences(prompt, localSummarySentences)

	if format == FormatJSON {
		out, err := json.Marshal(map[string]any{
			"summary":  summary,
			"keywords": ingest.TopKeywords(prompt, localKeywordCount),
			"offline":  true,
		})
		if err != nil {
			return "", fmt.Errorf("failed to marshal local output: %w", err)
		}
		return string(out), nil
	}
	return "Offline Summary\n\n" + summary, nil
}
