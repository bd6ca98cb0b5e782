// Package llm provides chat completion clients for the supported hosted
// providers plus a dispatcher that tries them in a fixed fallback order.
package llm

import (
	"context"
	"time"
)

// chatTimeout bounds a single completion attempt against one provider.
const chatTimeout = 30 * time.Second

// ChatOptions carries the generation parameters for one completion call.
// A zero Model means the provider's default model.
type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatProvider is a chat completion backend. Chat sends a system prompt and
// a user prompt and returns the assistant's text.
type ChatProvider interface {
	// Name identifies the provider in logs and responses, e.g. "groq".
	Name() string

	// Chat performs a single completion. Implementations honor ctx
	// cancellation and return the raw assistant text with surrounding
	// whitespace trimmed.
	Chat(ctx context.Context, system, user string, opts ChatOptions) (string, error)
}
