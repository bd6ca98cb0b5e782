package schema

import "time"

// FilterOperator compares a chunk metadata field against a filter value.
type FilterOperator string

const (
	FilterOpEq  FilterOperator = "eq"
	FilterOpNe  FilterOperator = "ne"
	FilterOpGt  FilterOperator = "gt"
	FilterOpGte FilterOperator = "gte"
	FilterOpLt  FilterOperator = "lt"
	FilterOpLte FilterOperator = "lte"
	FilterOpIn  FilterOperator = "in"
	FilterOpNin FilterOperator = "nin"
)

// FilterOperators lists every supported operator.
func FilterOperators() []FilterOperator {
	return []FilterOperator{
		FilterOpEq, FilterOpNe, FilterOpGt, FilterOpGte,
		FilterOpLt, FilterOpLte, FilterOpIn, FilterOpNin,
	}
}

// Valid reports whether op is a known filter operator.
func (op FilterOperator) Valid() bool {
	for _, known := range FilterOperators() {
		if op == known {
			return true
		}
	}
	return false
}

// MetadataFilter matches chunks whose metadata field satisfies the operator.
// Value is a scalar for comparison operators and a list for in/nin.
// Multiple filters combine with AND.
type MetadataFilter struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    interface{}    `json:"value"`
}

// NewMetadataFilter creates an equality filter, the most common case.
func NewMetadataFilter(field string, value interface{}) MetadataFilter {
	return MetadataFilter{Field: field, Operator: FilterOpEq, Value: value}
}

// QueryRequest is a query against one pipeline. Pointer fields override the
// pipeline's retrieval and LLM configuration for this request only.
type QueryRequest struct {
	Query            string           `json:"query"`
	TopK             *int             `json:"top_k,omitempty"`
	ScoreThreshold   *float64         `json:"score_threshold,omitempty"`
	MetadataFilters  []MetadataFilter `json:"metadata_filters,omitempty"`
	RerankingEnabled *bool            `json:"reranking_enabled,omitempty"`
	RerankingTopK    *int             `json:"reranking_top_k,omitempty"`
	RerankerModel    *RerankerModel   `json:"reranker_model,omitempty"`
	GenerateAnswer   bool             `json:"generate_answer,omitempty"`
	LLMProvider      *LLMProvider     `json:"llm_provider,omitempty"`
	LLMModel         *string          `json:"llm_model,omitempty"`
}

// EffectiveRetrieval merges per-query overrides over the pipeline's
// retrieval configuration.
func (r QueryRequest) EffectiveRetrieval(cfg RetrievalConfig) RetrievalConfig {
	if r.TopK != nil {
		cfg.TopK = *r.TopK
	}
	if r.ScoreThreshold != nil {
		cfg.ScoreThreshold = r.ScoreThreshold
	}
	if r.RerankingEnabled != nil {
		cfg.RerankingEnabled = *r.RerankingEnabled
	}
	if r.RerankingTopK != nil {
		cfg.RerankingTopK = *r.RerankingTopK
	}
	if r.RerankerModel != nil {
		cfg.RerankerModel = *r.RerankerModel
	}
	if cfg.RerankingTopK > cfg.TopK {
		cfg.RerankingTopK = cfg.TopK
	}
	return cfg
}

// EffectiveLLM merges per-query overrides over the pipeline's LLM
// configuration. Overriding the provider without a model resets the model,
// so the new provider serves its own default instead of a foreign one.
func (r QueryRequest) EffectiveLLM(cfg LLMConfig) LLMConfig {
	if r.LLMProvider != nil {
		cfg.Provider = *r.LLMProvider
		if r.LLMModel == nil {
			cfg.Model = ""
		}
	}
	if r.LLMModel != nil {
		cfg.Model = *r.LLMModel
	}
	return cfg
}

// SearchResult is one retrieved chunk with its similarity score in [0,1].
// RerankScore is set only when a reranker ran.
type SearchResult struct {
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata"`
	Score       float64           `json:"score"`
	RerankScore *float64          `json:"rerank_score,omitempty"`
}

// QueryResponse is the full result of one pipeline query.
type QueryResponse struct {
	Query            string         `json:"query"`
	Results          []SearchResult `json:"results"`
	Answer           *string        `json:"answer,omitempty"`
	TotalResults     int            `json:"total_results"`
	RerankingApplied bool           `json:"reranking_applied"`
	QueryTimeMs      int64          `json:"query_time_ms"`
	Warning          string         `json:"warning,omitempty"`
}

// DocumentUploadResponse reports the outcome of one document ingest.
type DocumentUploadResponse struct {
	DocumentID       string         `json:"document_id"`
	FileName         string         `json:"file_name"`
	FileSizeBytes    int64          `json:"file_size_bytes"`
	Status           DocumentStatus `json:"status"`
	ChunksCreated    int            `json:"chunks_created"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	Message          string         `json:"message,omitempty"`
	Warning          string         `json:"warning,omitempty"`
}

// DocumentInfo is the per-document summary embedded in pipeline statistics.
type DocumentInfo struct {
	ID            string         `json:"id"`
	FileName      string         `json:"file_name"`
	FileType      string         `json:"file_type"`
	FileSizeBytes int64          `json:"file_size_bytes"`
	ChunkCount    int            `json:"chunk_count"`
	Status        DocumentStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PipelineStatistics is the stats view of one pipeline. VectorStoreCount is
// read live from the collection and may differ from ChunkCount while an
// ingest is in flight.
type PipelineStatistics struct {
	PipelineID       string         `json:"pipeline_id"`
	Name             string         `json:"name"`
	Status           PipelineStatus `json:"status"`
	DocumentCount    int            `json:"document_count"`
	ChunkCount       int            `json:"chunk_count"`
	TotalQueries     int            `json:"total_queries"`
	LastQueryAt      *time.Time     `json:"last_query_at,omitempty"`
	VectorStoreCount int            `json:"vector_store_count"`
	Documents        []DocumentInfo `json:"documents"`
	Config           PipelineConfig `json:"config"`
}

// ConfigOption is one enumerated choice surfaced to API clients.
type ConfigOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ConfigDefaults is the default selection for each configuration knob.
type ConfigDefaults struct {
	ChunkingStrategy  ChunkingStrategy  `json:"chunking_strategy"`
	ChunkSize         int               `json:"chunk_size"`
	ChunkOverlap      int               `json:"chunk_overlap"`
	EmbeddingProvider EmbeddingProvider `json:"embedding_provider"`
	VectorStore       VectorStoreType   `json:"vector_store"`
	TopK              int               `json:"top_k"`
	RerankingEnabled  bool              `json:"reranking_enabled"`
	RerankingTopK     int               `json:"reranking_top_k"`
	RerankerModel     RerankerModel     `json:"reranker_model"`
	LLMProvider       LLMProvider       `json:"llm_provider"`
	LLMModel          string            `json:"llm_model"`
}

// ConfigOptions enumerates every configuration choice the service accepts.
type ConfigOptions struct {
	ChunkingStrategies []ConfigOption `json:"chunking_strategies"`
	EmbeddingProviders []ConfigOption `json:"embedding_providers"`
	VectorStores       []ConfigOption `json:"vector_stores"`
	LLMProviders       []ConfigOption `json:"llm_providers"`
	RerankerModels     []ConfigOption `json:"reranker_models"`
	Defaults           ConfigDefaults `json:"defaults"`
}
