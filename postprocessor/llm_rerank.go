package postprocessor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aqua777/ragpipe/llm"
	"github.com/aqua777/ragpipe/outputparser"
	"github.com/aqua777/ragpipe/prompts"
	"github.com/aqua777/ragpipe/schema"
)

// llmPreviewChars caps the per-candidate text shown to the scoring
// model. Previews keep the whole batch inside one prompt.
const llmPreviewChars = 300

const llmRerankSystemPrompt = "You are a relevance scoring assistant. You respond only with JSON."

// LLMRerank scores candidates with a chat model in a single call. The
// model sees numbered previews and must answer with a bare JSON array of
// floats, one per candidate, in input order.
type LLMRerank struct {
	dispatcher *llm.Dispatcher
	cfg        schema.LLMConfig
	prompt     *prompts.PromptTemplate
	logger     *slog.Logger
}

// LLMRerankOption configures an LLMRerank.
type LLMRerankOption func(*LLMRerank)

// WithLLMRerankPrompt replaces the scoring prompt.
func WithLLMRerankPrompt(prompt *prompts.PromptTemplate) LLMRerankOption {
	return func(r *LLMRerank) {
		r.prompt = prompt
	}
}

// WithLLMRerankLogger sets the logger.
func WithLLMRerankLogger(logger *slog.Logger) LLMRerankOption {
	return func(r *LLMRerank) {
		r.logger = logger
	}
}

// NewLLMRerank creates a reranker that scores through the LLM dispatcher
// with the given chat configuration.
func NewLLMRerank(dispatcher *llm.Dispatcher, cfg schema.LLMConfig, opts ...LLMRerankOption) *LLMRerank {
	r := &LLMRerank{
		dispatcher: dispatcher,
		cfg:        cfg,
		prompt:     prompts.DefaultRerankPrompt,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Name returns the reranker model name.
func (r *LLMRerank) Name() string {
	return string(schema.RerankerLLM)
}

// Rerank scores each result against the query and returns the top K by
// model-assigned score.
func (r *LLMRerank) Rerank(ctx context.Context, query string, results []schema.SearchResult, topK int) ([]schema.SearchResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	capped := capCandidates(results)

	var list strings.Builder
	for i, res := range capped {
		preview := res.Content
		if len(preview) > llmPreviewChars {
			preview = preview[:llmPreviewChars] + "..."
		}
		fmt.Fprintf(&list, "%d. %s\n", i+1, preview)
	}

	user := r.prompt.Format(map[string]string{
		"query_str":      query,
		"candidate_list": strings.TrimRight(list.String(), "\n"),
		"num_candidates": strconv.Itoa(len(capped)),
	})

	response, provider, err := r.dispatcher.Chat(ctx, r.cfg, llmRerankSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("rerank chat failed: %w", err)
	}

	scores, err := outputparser.ParseFloatArray(response)
	if err != nil {
		return nil, fmt.Errorf("rerank response from %s: %w", provider, err)
	}
	if len(scores) != len(capped) {
		return nil, fmt.Errorf("rerank response from %s has %d scores for %d candidates", provider, len(scores), len(capped))
	}
	for i := range scores {
		scores[i] = clamp01(scores[i])
	}

	return applyScores(capped, scores, topK), nil
}

var _ Reranker = (*LLMRerank)(nil)
