package validation

import (
	"fmt"

	"github.com/aqua777/ragpipe/schema"
)

// ValidateQueryRequest checks a query request's overrides against the same
// bounds the pipeline configuration enforces. Absent pointer fields are
// skipped; the pipeline's stored values already passed validation.
func ValidateQueryRequest(req schema.QueryRequest) error {
	v := NewValidator()

	v.RequireNotEmpty(req.Query, "query")

	if req.TopK != nil {
		v.RequireInRange(*req.TopK, schema.MinTopK, schema.MaxTopK, "top_k")
	}
	if t := req.ScoreThreshold; t != nil && (*t < 0 || *t > 1) {
		v.AddError("score_threshold", "must be between 0.0 and 1.0", *t)
	}
	if req.RerankingTopK != nil {
		v.RequireInRange(*req.RerankingTopK, 1, schema.MaxRerankingTopK, "reranking_top_k")
	}
	if req.RerankerModel != nil {
		v.Require(req.RerankerModel.Valid(), "reranker_model",
			fmt.Sprintf("unknown reranker model %q", *req.RerankerModel))
	}
	if req.LLMProvider != nil {
		v.Require(req.LLMProvider.Valid(), "llm_provider",
			fmt.Sprintf("unknown llm provider %q", *req.LLMProvider))
	}

	for i, f := range req.MetadataFilters {
		v.RequireNotEmpty(f.Field, fmt.Sprintf("metadata_filters[%d].field", i))
		v.Require(f.Operator.Valid(), fmt.Sprintf("metadata_filters[%d].operator", i),
			fmt.Sprintf("unknown filter operator %q", f.Operator))
	}

	return v.Error()
}
