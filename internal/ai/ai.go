// Package ai declares the provider-neutral contracts for text generation and
// embeddings used by the matching services.
package ai

import "context"

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Request is a single prompt exchange with a reasoning model.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	// Temperature is left to the provider default when nil.
	Temperature *float64
	// JSON asks the provider for a JSON-only response when it supports that.
	JSON bool
}

type Reasoner interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}
