// Package retriever turns a query into the similarity-ranked chunks of one
// pipeline's collection.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/rag/store"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
)

// Over-fetch bounds when reranking is enabled: the reranker sees a few
// extra candidates beyond top_k, but never more than rerankFetchMax.
const (
	rerankFetchExtra = 5
	rerankFetchMax   = 15
)

// Retriever finds the chunks most relevant to a query. The returned string
// is a warning for the response when a configured embedding provider was
// unavailable and the bundled default stood in.
type Retriever interface {
	Retrieve(ctx context.Context, pipeline *schema.Pipeline, req schema.QueryRequest) ([]schema.SearchResult, string, error)
}

// VectorRetriever embeds the query with the pipeline's encoder and runs a
// similarity search over its collection.
type VectorRetriever struct {
	vectors    store.Store
	embeddings *embedding.Dispatcher
	keys       settings.Source
	logger     *slog.Logger
}

// VectorRetrieverOption configures a VectorRetriever.
type VectorRetrieverOption func(*VectorRetriever)

// WithRetrieverLogger sets the logger.
func WithRetrieverLogger(logger *slog.Logger) VectorRetrieverOption {
	return func(r *VectorRetriever) {
		r.logger = logger
	}
}

// NewVectorRetriever creates a retriever over the given vector store.
func NewVectorRetriever(vectors store.Store, embeddings *embedding.Dispatcher, keys settings.Source, opts ...VectorRetrieverOption) *VectorRetriever {
	r := &VectorRetriever{
		vectors:    vectors,
		embeddings: embeddings,
		keys:       keys,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// fetchK returns how many candidates to pull from the index. With
// reranking enabled the reranker gets extra candidates to reorder.
func fetchK(cfg schema.RetrievalConfig) int {
	if !cfg.RerankingEnabled {
		return cfg.TopK
	}
	k := cfg.TopK + rerankFetchExtra
	if k > rerankFetchMax {
		k = rerankFetchMax
	}
	return k
}

// Retrieve runs the similarity search for one query. Results come back in
// score-descending order with scores in [0, 1]; results below the score
// threshold are dropped. An empty collection yields empty results.
func (r *VectorRetriever) Retrieve(ctx context.Context, pipeline *schema.Pipeline, req schema.QueryRequest) ([]schema.SearchResult, string, error) {
	if pipeline.Status != schema.PipelineStatusReady {
		return nil, "", apperr.New(apperr.KindPipelineNotReady,
			"pipeline %s is not ready for queries (status: %s)", pipeline.ID, pipeline.Status)
	}

	cfg := req.EffectiveRetrieval(pipeline.Config.Retrieval)

	embedder, tag, warning := r.embeddings.Resolve(pipeline.Config.Embedding, r.keys.Keys())

	coll, err := r.vectors.OpenOrCreate(ctx, pipeline.ID, embedder, tag)
	if err != nil {
		return nil, warning, fmt.Errorf("open collection for pipeline %s: %w", pipeline.ID, err)
	}

	count, err := coll.Count(ctx)
	if err != nil {
		return nil, warning, fmt.Errorf("count collection for pipeline %s: %w", pipeline.ID, err)
	}
	if count == 0 {
		return nil, warning, nil
	}

	n := fetchK(cfg)
	if n > count {
		n = count
	}

	queryVector, err := embedder.GetQueryEmbedding(ctx, req.Query)
	if err != nil {
		return nil, warning, fmt.Errorf("embed query: %w", err)
	}

	results, err := coll.Query(ctx, req.Query, queryVector, n, req.MetadataFilters)
	if err != nil {
		return nil, warning, fmt.Errorf("query collection for pipeline %s: %w", pipeline.ID, err)
	}

	if cfg.ScoreThreshold != nil {
		kept := results[:0]
		for _, res := range results {
			if res.Score >= *cfg.ScoreThreshold {
				kept = append(kept, res)
			}
		}
		results = kept
	}

	r.logger.Debug("retrieved chunks",
		"pipeline_id", pipeline.ID,
		"fetch_k", n,
		"results", len(results))

	return results, warning, nil
}

var _ Retriever = (*VectorRetriever)(nil)
