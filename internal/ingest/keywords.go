package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches lowercase alphanumeric runs plus CJK ideographs, the
// same vocabulary the retrieval layers score over.
var tokenPattern = regexp.MustCompile(`[a-z0-9\x{4e00}-\x{9fa5}]+`)

var stopwords = buildStopwords()

func buildStopwords() map[string]struct{} {
	words := strings.Fields("the a an and or of to in is are for with on by " +
		"from at as this that these those it be was were been being i you he " +
		"she they we our your their its not no yes do does did done have has " +
		"had can could may might must shall should will would if then else " +
		"than when where who what why how which about into over under more " +
		"less most least many few very just also even only other another some " +
		"any each every because so therefore thus hence include including such " +
		"per via across among between before after during within without")
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Tokenize lowercases text and returns its token runs, stopwords included.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// IsStopword reports whether the (already lowercased) token is in the fixed
// stop-word set.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// TopKeywords returns the k most frequent non-stopword tokens in text,
// ordered by descending frequency. Ties keep first-seen order: the sort is
// stable over token discovery order, so results are fully deterministic.
func TopKeywords(text string, k int) []string {
	if k <= 0 {
		return nil
	}
	freq := make(map[string]int)
	var order []string
	for _, tok := range Tokenize(text) {
		if IsStopword(tok) {
			continue
		}
		if _, seen := freq[tok]; !seen {
			order = append(order, tok)
		}
		freq[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > k {
		order = order[:k]
	}
	return order
}
