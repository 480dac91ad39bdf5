package llm

import (
	"context"
	"fmt"
	"strings"

	"notebook-ai/internal/contextutil"
)

// Fallback tries generators in order and returns the first usable output.
// An output shorter than minLen after trimming counts as unavailable and the
// next tier is tried. With a LocalGenerator as the last tier the chain never
// fails.
type Fallback struct {
	tiers  []Generator
	minLen int
}

// NewFallback builds a fallback chain over the given tiers.
func NewFallback(minLen int, tiers ...Generator) *Fallback {
	if minLen <= 0 {
		minLen = 30
	}
	return &Fallback{tiers: tiers, minLen: minLen}
}

// Name identifies the chain by its tiers.
func (f *Fallback) Name() string {
	names := make([]string, len(f.tiers))
	for i, tier := range f.tiers {
		names[i] = tier.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

// Generate returns the first usable tier output.
func (f *Fallback) Generate(ctx context.Context, system, user string, format Format) (string, error) {
	out, _, err := f.GenerateWithOrigin(ctx, system, user, format)
	return out, err
}

// GenerateWithOrigin additionally reports the name of the tier that produced
// the output, so callers can tell a model answer from the local placeholder.
func (f *Fallback) GenerateWithOrigin(ctx context.Context, system, user string, format Format) (string, string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for i, tier := range f.tiers {
		out, err := tier.Generate(ctx, system, user, format)
		if err != nil {
			logger.DebugContext(ctx, "generator tier unavailable", "tier", tier.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(strings.TrimSpace(out)) < f.minLen && i < len(f.tiers)-1 {
			logger.DebugContext(ctx, "generator output too short, trying next tier", "tier", tier.Name(), "length", len(out))
			continue
		}
		return out, tier.Name(), nil
	}
	if lastErr != nil {
		return "", "", fmt.Errorf("all generator tiers failed: %w", lastErr)
	}
	return "", "", fmt.Errorf("no generator tiers configured")
}
