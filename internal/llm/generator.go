// Package llm provides text generation behind a provider-agnostic interface
// with a deterministic local fallback, so every endpoint keeps working with
// no API keys configured.
package llm

//go:generate mockgen -source=generator.go -destination=mocks/mock_generator.go -package=mocks

import "context"

// Format selects the shape of the generated output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Generator produces text from a system and user prompt.
type Generator interface {
	// Name identifies the generator for logging and diagnostics.
	Name() string
	// Generate returns the model output for the given prompts. An empty or
	// error result means this generator is unavailable for the request.
	Generate(ctx context.Context, system, user string, format Format) (string, error)
}
