// Package flow runs multi-step generation flows over a set of sources. The
// step catalog is closed: a flow is composed from known step ids only, and
// each step carries a deterministic placeholder used when no generator tier
// produces a usable answer.
package flow

import (
	"fmt"
	"strings"

	"notebook-ai/internal/ingest"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/source"
)

// StepInput is everything a step prompt can draw on: the selected sources,
// the retrieved context snippets, options, and the output of the previous
// step in the flow.
type StepInput struct {
	Title    string
	Sources  []*source.Source
	Context  string
	Previous string
	Options  map[string]string
}

// Step is one entry in the catalog.
type Step struct {
	ID     string
	Format llm.Format
	// Prompt builds the system and user prompt for the generator.
	Prompt func(in StepInput) (system, user string)
	// Placeholder produces deterministic output from the sources alone.
	Placeholder func(in StepInput) string
}

const promptPreamble = "You are a knowledge distillation engine. Answer strictly from the provided material and keep the structure copy-pasteable."

func userPrompt(in StepInput, request string) string {
	var sb strings.Builder
	sb.WriteString(in.Context)
	if in.Previous != "" {
		sb.WriteString("\n\nOutput of the previous step:\n")
		sb.WriteString(in.Previous)
	}
	sb.WriteString("\n\n")
	sb.WriteString(request)
	return sb.String()
}

func basisText(sources []*source.Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n\n")
}

var steps = map[string]Step{
	"summarize": {
		ID:     "summarize",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			return promptPreamble, userPrompt(in,
				"Write a layered summary of the material: one short paragraph, then a medium summary, then a detailed one. List the key concepts at the end.")
		},
		Placeholder: func(in StepInput) string {
			basis := basisText(in.Sources)
			keywords := ingest.TopKeywords(basis, 8)
			return fmt.Sprintf("%s\n\nKey concepts: %s", ingest.FirstSentences(basis, 5), strings.Join(keywords, ", "))
		},
	},
	"outline_slides": {
		ID:     "outline_slides",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			template := in.Options["template"]
			if template == "" {
				template = "business"
			}
			return promptPreamble, userPrompt(in,
				fmt.Sprintf("Produce a slide deck outline in the %q style: one '# Slide N Title' heading per slide followed by bullet points.", template))
		},
		Placeholder: func(in StepInput) string {
			basis := basisText(in.Sources)
			var sb strings.Builder
			fmt.Fprintf(&sb, "# Slide 1 %s\n", in.Title)
			for _, kw := range ingest.TopKeywords(basis, 5) {
				fmt.Fprintf(&sb, "- %s\n", kw)
			}
			n := 2
			for _, s := range in.Sources {
				fmt.Fprintf(&sb, "\n# Slide %d %s\n", n, s.Name)
				for i, p := range ingest.SplitParagraphs(s.Text) {
					if i == 3 {
						break
					}
					fmt.Fprintf(&sb, "- %s\n", ingest.FirstSentences(p, 1))
				}
				n++
			}
			fmt.Fprintf(&sb, "\n# Slide %d Conclusions and next steps\n- Key insights\n- Recommended actions\n- Open questions\n", n)
			return sb.String()
		},
	},
	"quiz": {
		ID:     "quiz",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			return promptPreamble, userPrompt(in,
				"Create a quiz covering the material: multiple choice, true/false, fill-in and short-answer items, each with the correct answer and a one-line explanation.")
		},
		Placeholder: func(in StepInput) string {
			basis := basisText(in.Sources)
			keywords := ingest.TopKeywords(basis, 3)
			var sb strings.Builder
			sb.WriteString("1. (multiple choice) What is the central topic of the material?\n")
			for i, kw := range keywords {
				fmt.Fprintf(&sb, "   %c) %s\n", 'A'+rune(i), kw)
			}
			sb.WriteString("   Answer: A\n")
			sb.WriteString("2. (true/false) The conclusions apply universally. Answer: false\n")
			fmt.Fprintf(&sb, "3. (short answer) Summarize the main findings. Answer: %s\n", ingest.FirstSentences(basis, 3))
			return sb.String()
		},
	},
	"report": {
		ID:     "report",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			style := in.Options["style"]
			if style == "" {
				style = "corporate report"
			}
			return promptPreamble, userPrompt(in,
				fmt.Sprintf("Write a structured report in the %q style with sections: abstract, background, key insights, reasoning, data references, conclusions and recommendations.", style))
		},
		Placeholder: func(in StepInput) string {
			basis := basisText(in.Sources)
			var sb strings.Builder
			fmt.Fprintf(&sb, "## Abstract\n%s\n\n", ingest.FirstSentences(basis, 5))
			sb.WriteString("## Key insights\n")
			for _, kw := range ingest.TopKeywords(basis, 6) {
				fmt.Fprintf(&sb, "- %s\n", kw)
			}
			sb.WriteString("\n## Conclusions\nDerived from the listed insights; see citations for evidence.\n")
			return sb.String()
		},
	},
	"flashcards": {
		ID:     "flashcards",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			return promptPreamble, userPrompt(in,
				"Create study flashcards as 'Q:'/'A:' pairs: concept cards, key-fact cards and one higher-order question.")
		},
		Placeholder: func(in StepInput) string {
			basis := basisText(in.Sources)
			var sb strings.Builder
			for _, kw := range ingest.TopKeywords(basis, 8) {
				fmt.Fprintf(&sb, "Q: What is %q?\nA: A core concept of the material; see the cited passages.\n\n", kw)
			}
			return strings.TrimRight(sb.String(), "\n")
		},
	},
	"audio_overview": {
		ID:     "audio_overview",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			return promptPreamble, userPrompt(in,
				"Produce an audio overview: a cover title, a chapter structure, a narration script ready to read aloud, and a duration estimate.")
		},
		Placeholder: func(in StepInput) string {
			minutes := 2 * len(in.Sources)
			if minutes < 3 {
				minutes = 3
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "Audio overview: %s\nEstimated duration: %d minutes\n", in.Title, minutes)
			for i, s := range in.Sources {
				fmt.Fprintf(&sb, "\nChapter %d: %s\n%s\n", i+1, s.Name, ingest.FirstSentences(s.Text, 3))
			}
			return sb.String()
		},
	},
	"video_overview": {
		ID:     "video_overview",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			return promptPreamble, userPrompt(in,
				"Produce a video overview: a narrated script, a shot list, a structural outline, visual asset suggestions and a timeline.")
		},
		Placeholder: func(in StepInput) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "Video overview: %s\n", in.Title)
			for i, s := range in.Sources {
				fmt.Fprintf(&sb, "\nScene %d (00:20)\nVoiceover: %s\nShot: medium push-in, cut to close-up\nVisuals: key-point diagram, keyword captions\n", i+1, ingest.FirstSentences(s.Text, 3))
			}
			return sb.String()
		},
	},
	"mind_map": {
		ID:     "mind_map",
		Format: llm.FormatText,
		Prompt: func(in StepInput) (string, string) {
			return promptPreamble, userPrompt(in,
				"Produce a mind map of the material as a Mermaid mindmap block: central idea, then one branch per source with up to three sub-points each.")
		},
		Placeholder: func(in StepInput) string {
			var sb strings.Builder
			sb.WriteString("mindmap\n")
			fmt.Fprintf(&sb, "  root)%s(\n", in.Title)
			for _, s := range in.Sources {
				fmt.Fprintf(&sb, "    %s\n", s.Name)
				for i, p := range ingest.SplitParagraphs(s.Text) {
					if i == 3 {
						break
					}
					fmt.Fprintf(&sb, "      %s\n", ingest.FirstSentences(p, 1))
				}
			}
			return sb.String()
		},
	},
}

// Lookup returns the step for id, reporting whether it exists.
func Lookup(id string) (Step, bool) {
	s, ok := steps[id]
	return s, ok
}

// StepIDs lists the catalog in a fixed order.
func StepIDs() []string {
	return []string{"summarize", "outline_slides", "quiz", "report", "flashcards", "mind_map", "audio_overview", "video_overview"}
}
