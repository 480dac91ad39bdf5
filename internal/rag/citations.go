package rag

import (
	"sort"

	"notebook-ai/internal/ingest"
	"notebook-ai/internal/source"
)

const citationQueryKeywords = 16

// PickCitations scores every chunk of the given sources by keyword overlap
// with the question and answer combined, and returns up to max citations by
// descending overlap. Ties keep source order. Snippets are truncated to
// snippetLen runes.
func PickCitations(sources []*source.Source, question, answer string, max, snippetLen int) []source.Citation {
	if max <= 0 {
		return nil
	}
	keywords := ingest.TopKeywords(question+" "+answer, citationQueryKeywords)
	keySet := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		keySet[kw] = struct{}{}
	}

	var cites []source.Citation
	for _, src := range sources {
		for _, c := range src.Chunks {
			words := make(map[string]struct{})
			for _, tok := range ingest.Tokenize(c.Text) {
				words[tok] = struct{}{}
			}
			overlap := 0
			for kw := range keySet {
				if _, ok := words[kw]; ok {
					overlap++
				}
			}
			if overlap == 0 {
				continue
			}
			cites = append(cites, source.Citation{
				SourceID:   src.ID,
				SourceName: src.Name,
				Snippet:    truncateRunes(c.Text, snippetLen),
				Score:      overlap,
			})
		}
	}
	sort.SliceStable(cites, func(i, j int) bool { return cites[i].Score > cites[j].Score })
	if len(cites) > max {
		cites = cites[:max]
	}
	return cites
}

// DedupCitations removes duplicates by (source, snippet) identity, keeping
// the first occurrence. Order is otherwise preserved.
func DedupCitations(cites []source.Citation) []source.Citation {
	type key struct {
		sourceID string
		snippet  string
	}
	seen := make(map[key]struct{}, len(cites))
	out := make([]source.Citation, 0, len(cites))
	for _, c := range cites {
		k := key{sourceID: c.SourceID, snippet: c.Snippet}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
