package synthesizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aqua777/ragpipe/llm"
	"github.com/aqua777/ragpipe/prompts"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/textsplitter"
)

// DefaultContextTokenBudget bounds the tokens spent on retrieved context
// in one synthesis call, leaving headroom for the prompt scaffolding and
// the answer inside common context windows.
const DefaultContextTokenBudget = 6000

// entrySeparator joins context entries in the prompt.
const entrySeparator = "\n\n---\n\n"

// CompactSynthesizer packs retrieved chunks into a single token-budgeted
// context block and answers with one chat call through the LLM dispatcher.
type CompactSynthesizer struct {
	dispatcher  *llm.Dispatcher
	tokenBudget int
	counter     textsplitter.TokenCounter
	qaPrompt    *prompts.PromptTemplate
	logger      *slog.Logger
}

// CompactSynthesizerOption configures a CompactSynthesizer.
type CompactSynthesizerOption func(*CompactSynthesizer)

// WithTokenBudget sets the context token budget.
func WithTokenBudget(budget int) CompactSynthesizerOption {
	return func(s *CompactSynthesizer) {
		s.tokenBudget = budget
	}
}

// WithTokenCounter sets the token counter used for budgeting.
func WithTokenCounter(counter textsplitter.TokenCounter) CompactSynthesizerOption {
	return func(s *CompactSynthesizer) {
		s.counter = counter
	}
}

// WithQAPrompt replaces the answer prompt.
func WithQAPrompt(prompt *prompts.PromptTemplate) CompactSynthesizerOption {
	return func(s *CompactSynthesizer) {
		s.qaPrompt = prompt
	}
}

// WithSynthesizerLogger sets the logger.
func WithSynthesizerLogger(logger *slog.Logger) CompactSynthesizerOption {
	return func(s *CompactSynthesizer) {
		s.logger = logger
	}
}

// NewCompactSynthesizer creates a synthesizer that answers through the
// given dispatcher.
func NewCompactSynthesizer(dispatcher *llm.Dispatcher, opts ...CompactSynthesizerOption) *CompactSynthesizer {
	s := &CompactSynthesizer{
		dispatcher:  dispatcher,
		tokenBudget: DefaultContextTokenBudget,
		counter:     textsplitter.DefaultTokenCounter(),
		qaPrompt:    prompts.DefaultRAGAnswerPrompt,
		logger:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Synthesize answers the query from the retrieved chunks. Results must
// arrive in relevance order; when the context exceeds the token budget the
// lowest-ranked chunks are dropped first.
func (s *CompactSynthesizer) Synthesize(ctx context.Context, query string, results []schema.SearchResult, cfg schema.LLMConfig) (string, schema.LLMProvider, error) {
	if len(results) == 0 {
		return "", "", nil
	}

	contextStr, kept := s.buildContext(results)
	if kept < len(results) {
		s.logger.Info("context trimmed to token budget",
			"budget", s.tokenBudget,
			"chunks_kept", kept,
			"chunks_dropped", len(results)-kept)
	}

	user := s.qaPrompt.Format(map[string]string{
		"context_str": contextStr,
		"query_str":   query,
	})

	answer, provider, err := s.dispatcher.Chat(ctx, cfg, prompts.DefaultRAGSystemPrompt, user)
	if err != nil {
		return "", "", fmt.Errorf("synthesize answer: %w", err)
	}

	return strings.TrimSpace(answer), provider, nil
}

// buildContext formats one entry per chunk and joins as many as fit the
// token budget, dropping from the tail. At least one entry always goes
// through, oversized or not.
func (s *CompactSynthesizer) buildContext(results []schema.SearchResult) (string, int) {
	entries := make([]string, len(results))
	for i, res := range results {
		entries[i] = formatContextEntry(res, i)
	}

	sepTokens := s.counter.CountTokens(entrySeparator)
	total := 0
	kept := 0
	for _, entry := range entries {
		cost := s.counter.CountTokens(entry)
		if kept > 0 {
			cost += sepTokens
		}
		if kept > 0 && total+cost > s.tokenBudget {
			break
		}
		total += cost
		kept++
	}

	return strings.Join(entries[:kept], entrySeparator), kept
}

// formatContextEntry renders one chunk with its provenance header so the
// model can cite sources.
func formatContextEntry(res schema.SearchResult, position int) string {
	source := res.Metadata[schema.MetaFileName]
	if source == "" {
		source = "Unknown"
	}
	chunkIndex := res.Metadata[schema.MetaChunkIndex]
	if chunkIndex == "" {
		chunkIndex = fmt.Sprintf("%d", position+1)
	}
	return fmt.Sprintf("[Source: %s, Chunk %s, Score: %.3f]\n%s", source, chunkIndex, res.Score, res.Content)
}

var _ Synthesizer = (*CompactSynthesizer)(nil)
