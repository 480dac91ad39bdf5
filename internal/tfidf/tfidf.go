// Package tfidf implements sparse TF-IDF cosine retrieval over a chunk
// corpus. It needs no persisted vectors and is the retrieval fallback of
// last resort.
package tfidf

import (
	"math"
	"sort"

	"notebook-ai/internal/ingest"
)

// Engine holds the inverse-document-frequency table fitted over one corpus.
type Engine struct {
	idf  map[string]float64
	docs int
}

// New fits an engine over the given corpus texts. IDF per term is
// ln(1 + N/(1+df)) where N is the corpus size and df the number of texts
// containing the term.
func New(texts []string) *Engine {
	df := make(map[string]int)
	n := len(texts)
	if n == 0 {
		n = 1
	}
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range ingest.Tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log(1 + float64(n)/float64(1+count))
	}
	return &Engine{idf: idf, docs: n}
}

// Vectorize maps text to a sparse term-weight vector:
// w(t) = (0.5 + 0.5*tf(t)/maxtf) * idf(t). Terms absent from the fitted IDF
// table contribute nothing: out-of-vocabulary query terms are dropped
// rather than smoothed, which keeps ranking reproducible.
func (e *Engine) Vectorize(text string) map[string]float64 {
	tf := make(map[string]int)
	for _, tok := range ingest.Tokenize(text) {
		tf[tok]++
	}
	maxTF := 0
	for _, f := range tf {
		if f > maxTF {
			maxTF = f
		}
	}
	vec := make(map[string]float64)
	if maxTF == 0 {
		return vec
	}
	for term, f := range tf {
		idf, ok := e.idf[term]
		if !ok {
			continue
		}
		vec[term] = (0.5 + 0.5*float64(f)/float64(maxTF)) * idf
	}
	return vec
}

// Cosine computes cosine similarity between two sparse weight vectors,
// returning 0 when either has zero norm.
func Cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for term, w := range a {
		dot += w * b[term]
		na += w * w
	}
	for _, w := range b {
		nb += w * w
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

// Match is one ranked corpus entry.
type Match struct {
	Index int
	Score float64
}

// Rank scores every corpus text against the query and returns up to k
// matches by descending similarity. Ties keep corpus iteration order
// (the sort is stable).
func Rank(texts []string, query string, k int) []Match {
	if len(texts) == 0 || k <= 0 {
		return nil
	}
	engine := New(texts)
	qv := engine.Vectorize(query)

	matches := make([]Match, len(texts))
	for i, text := range texts {
		matches[i] = Match{Index: i, Score: Cosine(engine.Vectorize(text), qv)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
