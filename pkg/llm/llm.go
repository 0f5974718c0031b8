package llm

import "context"

// Analyzer represents a generic interface for deep-analysis providers.
type Analyzer interface {
	// Analyze sends one utterance (plus a context tag) and returns the raw
	// provider output. The caller owns the timeout on ctx.
	Analyze(ctx context.Context, text, contextTag string) (string, error)

	// Reset clears any conversation history the provider keeps
	Reset()
}
