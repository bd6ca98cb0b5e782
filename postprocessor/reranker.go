// Package postprocessor rescores retrieved results with a second-stage
// relevance model before they reach answer synthesis.
package postprocessor

import (
	"context"
	"sort"

	"github.com/aqua777/ragpipe/schema"
)

// MaxCandidates caps how many retrieved results are scored per query.
// Cross-encoder latency grows linearly with candidates, and results past
// the similarity top ten rarely win a rerank.
const MaxCandidates = 10

// Reranker scores results against the query and returns the top K by
// rerank score, each annotated with RerankScore. Implementations never
// mutate the input slice.
type Reranker interface {
	// Rerank reorders results by model-judged relevance to the query.
	Rerank(ctx context.Context, query string, results []schema.SearchResult, topK int) ([]schema.SearchResult, error)

	// Name returns the reranker model name.
	Name() string
}

// capCandidates truncates to the highest-similarity MaxCandidates
// results. The retriever returns results in similarity order.
func capCandidates(results []schema.SearchResult) []schema.SearchResult {
	if len(results) > MaxCandidates {
		return results[:MaxCandidates]
	}
	return results
}

// applyScores annotates results with rerank scores and returns the top K
// by score descending. The sort is stable so ties keep similarity order.
func applyScores(results []schema.SearchResult, scores []float64, topK int) []schema.SearchResult {
	ranked := make([]schema.SearchResult, len(results))
	copy(ranked, results)
	for i := range ranked {
		s := scores[i]
		ranked[i].RerankScore = &s
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].RerankScore > *ranked[j].RerankScore
	})

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
