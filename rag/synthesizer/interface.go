// Package synthesizer produces grounded answers from retrieved chunks.
package synthesizer

import (
	"context"

	"github.com/aqua777/ragpipe/schema"
)

// Synthesizer generates an answer to a query from retrieved chunks. It
// returns the answer text and the provider that served it.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []schema.SearchResult, cfg schema.LLMConfig) (string, schema.LLMProvider, error)
}
