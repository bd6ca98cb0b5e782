package validation

import (
	"fmt"

	"github.com/aqua777/ragpipe/schema"
)

// ValidatePipelineName checks the name given at pipeline creation.
func ValidatePipelineName(name string) error {
	v := NewValidator()
	v.RequireNotEmpty(name, "name")
	if len(name) > schema.MaxPipelineNameLen {
		v.AddError("name", fmt.Sprintf("must be at most %d characters", schema.MaxPipelineNameLen), len(name))
	}
	return v.Error()
}

// ValidatePipelineConfig checks every configuration block against its
// documented bounds and enumerations. All violations are collected into a
// single error so the caller can report them at once.
func ValidatePipelineConfig(cfg schema.PipelineConfig) error {
	v := NewValidator()

	v.Require(cfg.Chunking.Strategy.Valid(), "chunking.strategy",
		fmt.Sprintf("unknown chunking strategy %q", cfg.Chunking.Strategy))
	v.RequireInRange(cfg.Chunking.ChunkSize, schema.MinChunkSize, schema.MaxChunkSize, "chunking.chunk_size")
	v.RequireInRange(cfg.Chunking.ChunkOverlap, 0, schema.MaxChunkOverlap, "chunking.chunk_overlap")
	if cfg.Chunking.ChunkOverlap >= cfg.Chunking.ChunkSize {
		v.AddError("chunking.chunk_overlap", "must be less than chunk_size", cfg.Chunking.ChunkOverlap)
	}

	v.Require(cfg.Embedding.Provider.Valid(), "embedding.provider",
		fmt.Sprintf("unknown embedding provider %q", cfg.Embedding.Provider))

	v.Require(cfg.VectorStore.Type.Valid(), "vector_store.type",
		fmt.Sprintf("unknown vector store %q", cfg.VectorStore.Type))

	v.RequireInRange(cfg.Retrieval.TopK, schema.MinTopK, schema.MaxTopK, "retrieval.top_k")
	if t := cfg.Retrieval.ScoreThreshold; t != nil && (*t < 0 || *t > 1) {
		v.AddError("retrieval.score_threshold", "must be between 0.0 and 1.0", *t)
	}
	v.RequireInRange(cfg.Retrieval.RerankingTopK, 1, schema.MaxRerankingTopK, "retrieval.reranking_top_k")
	v.Require(cfg.Retrieval.RerankerModel.Valid(), "retrieval.reranker_model",
		fmt.Sprintf("unknown reranker model %q", cfg.Retrieval.RerankerModel))

	v.Require(cfg.LLM.Provider.Valid(), "llm.provider",
		fmt.Sprintf("unknown llm provider %q", cfg.LLM.Provider))
	v.RequireNotEmpty(cfg.LLM.Model, "llm.model")
	v.RequirePositive(cfg.LLM.MaxTokens, "llm.max_tokens")
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		v.AddError("llm.temperature", "must be between 0.0 and 2.0", cfg.LLM.Temperature)
	}

	return v.Error()
}
