package server

import "github.com/aqua777/ragpipe/schema"

// The creation request mirrors schema.PipelineConfig with every block
// and field optional. Merging over the defaults happens here so the
// engine always sees a fully populated configuration.

type chunkingBlock struct {
	Strategy     *schema.ChunkingStrategy `json:"strategy"`
	ChunkSize    *int                     `json:"chunk_size"`
	ChunkOverlap *int                     `json:"chunk_overlap"`
}

type embeddingBlock struct {
	Provider *schema.EmbeddingProvider `json:"provider"`
	Model    *string                   `json:"model"`
}

type vectorStoreBlock struct {
	Type *schema.VectorStoreType `json:"type"`
}

type retrievalBlock struct {
	TopK             *int                  `json:"top_k"`
	ScoreThreshold   *float64              `json:"score_threshold"`
	RerankingEnabled *bool                 `json:"reranking_enabled"`
	RerankingTopK    *int                  `json:"reranking_top_k"`
	RerankerModel    *schema.RerankerModel `json:"reranker_model"`
}

type llmBlock struct {
	Provider    *schema.LLMProvider `json:"provider"`
	Model       *string             `json:"model"`
	Temperature *float64            `json:"temperature"`
	MaxTokens   *int                `json:"max_tokens"`
}

type createPipelineRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Chunking    *chunkingBlock    `json:"chunking"`
	Embedding   *embeddingBlock   `json:"embedding"`
	VectorStore *vectorStoreBlock `json:"vector_store"`
	Retrieval   *retrievalBlock   `json:"retrieval"`
	LLM         *llmBlock         `json:"llm"`
}

// config merges the request over DefaultPipelineConfig. Omitted blocks
// and omitted fields inside present blocks keep their defaults.
func (r createPipelineRequest) config() schema.PipelineConfig {
	cfg := schema.DefaultPipelineConfig()

	if b := r.Chunking; b != nil {
		if b.Strategy != nil {
			cfg.Chunking.Strategy = *b.Strategy
		}
		if b.ChunkSize != nil {
			cfg.Chunking.ChunkSize = *b.ChunkSize
		}
		if b.ChunkOverlap != nil {
			cfg.Chunking.ChunkOverlap = *b.ChunkOverlap
		}
	}
	if b := r.Embedding; b != nil {
		if b.Provider != nil {
			cfg.Embedding.Provider = *b.Provider
		}
		if b.Model != nil {
			cfg.Embedding.Model = *b.Model
		}
	}
	if b := r.VectorStore; b != nil {
		if b.Type != nil {
			cfg.VectorStore.Type = *b.Type
		}
	}
	if b := r.Retrieval; b != nil {
		if b.TopK != nil {
			cfg.Retrieval.TopK = *b.TopK
		}
		if b.ScoreThreshold != nil {
			cfg.Retrieval.ScoreThreshold = b.ScoreThreshold
		}
		if b.RerankingEnabled != nil {
			cfg.Retrieval.RerankingEnabled = *b.RerankingEnabled
		}
		if b.RerankingTopK != nil {
			cfg.Retrieval.RerankingTopK = *b.RerankingTopK
		}
		if b.RerankerModel != nil {
			cfg.Retrieval.RerankerModel = *b.RerankerModel
		}
	}
	if b := r.LLM; b != nil {
		if b.Provider != nil {
			cfg.LLM.Provider = *b.Provider
		}
		if b.Model != nil {
			cfg.LLM.Model = *b.Model
		}
		if b.Temperature != nil {
			cfg.LLM.Temperature = *b.Temperature
		}
		if b.MaxTokens != nil {
			cfg.LLM.MaxTokens = *b.MaxTokens
		}
	}

	return cfg
}

// queryRequest mirrors schema.QueryRequest except that generate_answer
// defaults to true when the body omits it.
type queryRequest struct {
	Query            string                  `json:"query"`
	TopK             *int                    `json:"top_k"`
	ScoreThreshold   *float64                `json:"score_threshold"`
	MetadataFilters  []schema.MetadataFilter `json:"metadata_filters"`
	RerankingEnabled *bool                   `json:"reranking_enabled"`
	RerankingTopK    *int                    `json:"reranking_top_k"`
	RerankerModel    *schema.RerankerModel   `json:"reranker_model"`
	GenerateAnswer   *bool                   `json:"generate_answer"`
	LLMProvider      *schema.LLMProvider     `json:"llm_provider"`
	LLMModel         *string                 `json:"llm_model"`
}

func (r queryRequest) toQuery() schema.QueryRequest {
	q := schema.QueryRequest{
		Query:            r.Query,
		TopK:             r.TopK,
		ScoreThreshold:   r.ScoreThreshold,
		MetadataFilters:  r.MetadataFilters,
		RerankingEnabled: r.RerankingEnabled,
		RerankingTopK:    r.RerankingTopK,
		RerankerModel:    r.RerankerModel,
		GenerateAnswer:   true,
		LLMProvider:      r.LLMProvider,
		LLMModel:         r.LLMModel,
	}
	if r.GenerateAnswer != nil {
		q.GenerateAnswer = *r.GenerateAnswer
	}
	return q
}
