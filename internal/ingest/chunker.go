package ingest

import (
	"regexp"
	"strings"
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// SplitParagraphs splits raw text into paragraphs on blank-line boundaries.
// CRLF is normalized to LF first; fragments are trimmed and empty ones
// dropped. Deterministic, and empty input yields an empty result.
func SplitParagraphs(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	parts := paragraphBreak.Split(normalized, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentenceTerminators covers Latin and CJK sentence-ending punctuation.
const sentenceTerminators = ".!?。！？"

// FirstSentences returns up to max sentences from the start of text,
// joined by single spaces. Used for deterministic summaries when the
// generator is degraded.
func FirstSentences(text string, max int) string {
	if max <= 0 || text == "" {
		return ""
	}
	var sentences []string
	var current strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if strings.ContainsRune(sentenceTerminators, runes[i]) {
			// Consume any run of terminators (e.g. "?!"), then break at whitespace.
			for i+1 < len(runes) && strings.ContainsRune(sentenceTerminators, runes[i+1]) {
				i++
				current.WriteRune(runes[i])
			}
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
			if len(sentences) >= max {
				return strings.Join(sentences, " ")
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	if len(sentences) > max {
		sentences = sentences[:max]
	}
	return strings.Join(sentences, " ")
}
