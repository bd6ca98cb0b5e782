package rag

import (
	"context"
	"time"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/postprocessor"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/validation"
)

// Query answers one query against a pipeline: retrieve, optionally
// rerank, optionally synthesize. Rerank and synthesis failures degrade
// the response instead of failing it; retrieval failures are real
// errors.
func (e *Engine) Query(ctx context.Context, pipelineID string, req schema.QueryRequest) (*schema.QueryResponse, error) {
	start := time.Now()

	if err := validation.ValidateQueryRequest(req); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "invalid query request")
	}

	p, err := e.catalog.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	results, warning, err := e.retriever.Retrieve(ctx, p, req)
	if err != nil {
		return nil, err
	}

	retrieval := req.EffectiveRetrieval(p.Config.Retrieval)
	llmCfg := req.EffectiveLLM(p.Config.LLM)

	rerankingApplied := false
	if retrieval.RerankingEnabled && len(results) > 0 {
		reranker := e.reranker(retrieval.RerankerModel, llmCfg)
		reranked, rerankErr := reranker.Rerank(ctx, req.Query, results, retrieval.RerankingTopK)
		if rerankErr != nil {
			e.logger.Warn("reranking failed, keeping similarity order",
				"pipeline_id", pipelineID,
				"reranker", reranker.Name(),
				"error", rerankErr)
		} else {
			results = reranked
			rerankingApplied = true
		}
	}

	var answer *string
	if req.GenerateAnswer && len(results) > 0 {
		text, provider, synthErr := e.synthesizer.Synthesize(ctx, req.Query, results, llmCfg)
		if synthErr != nil {
			e.logger.Warn("answer synthesis failed",
				"pipeline_id", pipelineID,
				"error", synthErr)
		} else {
			answer = &text
			e.logger.Debug("answer synthesized",
				"pipeline_id", pipelineID,
				"provider", provider)
		}
	}

	if err := e.catalog.TouchQuery(ctx, pipelineID); err != nil {
		e.logger.Warn("touch query stats",
			"pipeline_id", pipelineID,
			"error", err)
	}

	if results == nil {
		results = []schema.SearchResult{}
	}

	return &schema.QueryResponse{
		Query:            req.Query,
		Results:          results,
		Answer:           answer,
		TotalResults:     len(results),
		RerankingApplied: rerankingApplied,
		QueryTimeMs:      time.Since(start).Milliseconds(),
		Warning:          warning,
	}, nil
}

// reranker picks the second-stage scorer for one query. LLM reranking
// rides the chat dispatcher with the query's effective LLM settings;
// everything else goes to the cross-encoder endpoint.
func (e *Engine) reranker(model schema.RerankerModel, llmCfg schema.LLMConfig) postprocessor.Reranker {
	if model == schema.RerankerLLM {
		return postprocessor.NewLLMRerank(e.chat, llmCfg,
			postprocessor.WithLLMRerankLogger(e.logger))
	}
	return postprocessor.NewTEIRerank(e.teiRerankURL,
		postprocessor.WithTEIRerankLogger(e.logger))
}
