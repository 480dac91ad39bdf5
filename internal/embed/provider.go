// Package embed resolves dense vectors for text through an ordered provider
// chain: remote OpenAI, then remote Gemini, then a deterministic local
// hashing scheme that works fully offline.
package embed

import (
	"context"
	"fmt"
	"math"

	"notebook-ai/internal/contextutil"
)

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// Result is one embedding batch: a vector per input text, all sharing the
// same dimensionality and producing provider.
type Result struct {
	Vectors  [][]float32
	Dim      int
	Provider string
}

// Provider turns a batch of texts into dense vectors. Implementations fail
// closed: any transport error, non-success status, or missing credential is
// an error return, never a panic, so the chain can advance to the next tier.
type Provider interface {
	Name() string
	Embed(ctx context.Context, texts []string) (*Result, error)
}

// Chain tries each tier in order and returns the first success. The order
// is fixed at construction, so fallback behavior is deterministic. The last
// tier is expected to be the local hasher, which never fails.
type Chain struct {
	tiers []Provider
}

// NewChain creates a provider chain over the given tiers.
func NewChain(tiers ...Provider) *Chain {
	return &Chain{tiers: tiers}
}

// Name identifies the chain by its first tier; the actual provider used for
// a given call is reported in the Result.
func (c *Chain) Name() string {
	if len(c.tiers) == 0 {
		return "none"
	}
	return c.tiers[0].Name()
}

// Embed resolves vectors for texts via the first tier that succeeds.
func (c *Chain) Embed(ctx context.Context, texts []string) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	var lastErr error
	for _, tier := range c.tiers {
		res, err := tier.Embed(ctx, texts)
		if err != nil {
			logger.DebugContext(ctx, "embedding tier unavailable", "provider", tier.Name(), "error", err)
			lastErr = err
			continue
		}
		return res, nil
	}
	return nil, fmt.Errorf("all embedding tiers failed: %w", lastErr)
}

// Cosine computes cosine similarity between two dense vectors: dot divided
// by the product of magnitudes, 0 when either norm is 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		na += float64(v) * float64(v)
	}
	for _, v := range b {
		nb += float64(v) * float64(v)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}
