package embed

import (
	"context"
	"math"
	"strings"
)

// LocalProvider is the deterministic offline tier: character trigrams are
// rolling-hashed and folded into a fixed-width vector, then L2-normalized.
// The same text always produces the identical vector, so locally issued
// vectors remain mutually comparable across restarts. It never fails.
type LocalProvider struct {
	Dim int
}

// NewLocalProvider creates a local hash embedder with the given vector
// width. The width is fixed for the life of the corpus so vectors issued at
// different times stay comparable.
func NewLocalProvider(dim int) *LocalProvider {
	if dim <= 0 {
		dim = 768
	}
	return &LocalProvider{Dim: dim}
}

// Name returns the provider identifier for the local tier.
func (p *LocalProvider) Name() string {
	return "local-hash"
}

// Embed hashes each text into a normalized vector. Always succeeds.
func (p *LocalProvider) Embed(_ context.Context, texts []string) (*Result, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.hashText(text)
	}
	return &Result{Vectors: vectors, Dim: p.Dim, Provider: p.Name()}, nil
}

// hashText folds character trigrams of the lowercased text into the vector
// via a polynomial rolling hash, then L2-normalizes.
func (p *LocalProvider) hashText(text string) []float32 {
	vec := make([]float32, p.Dim)
	runes := []rune(strings.ToLower(text))
	if len(runes) < 3 {
		runes = append(runes, ' ', ' ')
	}
	for i := 0; i+2 < len(runes); i++ {
		var h uint32
		for _, r := range runes[i : i+3] {
			h = h*31 + uint32(r)
		}
		vec[h%uint32(p.Dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}
