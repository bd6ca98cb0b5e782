package schema

// ChunkingStrategy selects how document text is split into chunks.
type ChunkingStrategy string

const (
	ChunkingFixedSize ChunkingStrategy = "fixed_size"
	ChunkingRecursive ChunkingStrategy = "recursive"
	ChunkingSentence  ChunkingStrategy = "sentence"
	ChunkingParagraph ChunkingStrategy = "paragraph"
	ChunkingSemantic  ChunkingStrategy = "semantic"
)

// ChunkingStrategies lists every supported strategy in presentation order.
func ChunkingStrategies() []ChunkingStrategy {
	return []ChunkingStrategy{
		ChunkingFixedSize,
		ChunkingRecursive,
		ChunkingSentence,
		ChunkingParagraph,
		ChunkingSemantic,
	}
}

// Valid reports whether s is a known chunking strategy.
func (s ChunkingStrategy) Valid() bool {
	switch s {
	case ChunkingFixedSize, ChunkingRecursive, ChunkingSentence, ChunkingParagraph, ChunkingSemantic:
		return true
	}
	return false
}

// EmbeddingProvider selects which encoder produces chunk and query vectors.
type EmbeddingProvider string

const (
	EmbeddingChromaDefault        EmbeddingProvider = "chroma_default"
	EmbeddingBGESmall             EmbeddingProvider = "bge_small"
	EmbeddingSTMpnet              EmbeddingProvider = "st_mpnet"
	EmbeddingSTRoberta            EmbeddingProvider = "st_roberta"
	EmbeddingQwen3                EmbeddingProvider = "qwen3_embed"
	EmbeddingOpenAI               EmbeddingProvider = "openai"
	EmbeddingGoogle               EmbeddingProvider = "google"
	EmbeddingSentenceTransformers EmbeddingProvider = "sentence_transformers"
	EmbeddingHuggingFace          EmbeddingProvider = "huggingface"
)

// EmbeddingProviders lists every supported provider in presentation order.
func EmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingChromaDefault,
		EmbeddingBGESmall,
		EmbeddingSTMpnet,
		EmbeddingSTRoberta,
		EmbeddingQwen3,
		EmbeddingOpenAI,
		EmbeddingGoogle,
		EmbeddingSentenceTransformers,
		EmbeddingHuggingFace,
	}
}

// Valid reports whether p is a known embedding provider.
func (p EmbeddingProvider) Valid() bool {
	for _, known := range EmbeddingProviders() {
		if p == known {
			return true
		}
	}
	return false
}

// Remote reports whether the provider requires an API key.
func (p EmbeddingProvider) Remote() bool {
	switch p {
	case EmbeddingOpenAI, EmbeddingGoogle, EmbeddingHuggingFace:
		return true
	}
	return false
}

// VectorStoreType selects the ANN index backend.
type VectorStoreType string

// VectorStoreChroma is the only supported backend today; the enum leaves
// room for future backends.
const VectorStoreChroma VectorStoreType = "chroma"

// VectorStoreTypes lists every supported backend.
func VectorStoreTypes() []VectorStoreType {
	return []VectorStoreType{VectorStoreChroma}
}

// Valid reports whether t is a known vector store type.
func (t VectorStoreType) Valid() bool {
	return t == VectorStoreChroma
}

// LLMProvider selects the chat-completion provider for answer synthesis
// and LLM-scored reranking.
type LLMProvider string

const (
	LLMGemini     LLMProvider = "gemini"
	LLMGroq       LLMProvider = "groq"
	LLMOpenRouter LLMProvider = "openrouter"
	LLMOpenAI     LLMProvider = "openai"
	LLMAnthropic  LLMProvider = "anthropic"
	LLMDeepSeek   LLMProvider = "deepseek"
)

// LLMProviders lists every supported provider in fallback order.
func LLMProviders() []LLMProvider {
	return []LLMProvider{
		LLMGemini,
		LLMGroq,
		LLMOpenRouter,
		LLMOpenAI,
		LLMAnthropic,
		LLMDeepSeek,
	}
}

// Valid reports whether p is a known LLM provider.
func (p LLMProvider) Valid() bool {
	for _, known := range LLMProviders() {
		if p == known {
			return true
		}
	}
	return false
}

// RerankerModel selects the second-stage reranking strategy.
type RerankerModel string

const (
	// RerankerQwen3 scores candidates with a local cross-encoder model.
	RerankerQwen3 RerankerModel = "qwen3"
	// RerankerLLM scores candidates with a chat-model prompt.
	RerankerLLM RerankerModel = "llm"
)

// RerankerModels lists every supported reranker.
func RerankerModels() []RerankerModel {
	return []RerankerModel{RerankerQwen3, RerankerLLM}
}

// Valid reports whether m is a known reranker model.
func (m RerankerModel) Valid() bool {
	return m == RerankerQwen3 || m == RerankerLLM
}

// ChunkingConfig controls the chunker.
type ChunkingConfig struct {
	Strategy     ChunkingStrategy `json:"strategy"`
	ChunkSize    int              `json:"chunk_size"`
	ChunkOverlap int              `json:"chunk_overlap"`
}

// EmbeddingConfig controls the embedding dispatcher. Model optionally
// overrides the provider's default model name.
type EmbeddingConfig struct {
	Provider EmbeddingProvider `json:"provider"`
	Model    string            `json:"model,omitempty"`
}

// VectorStoreConfig controls the ANN backend.
type VectorStoreConfig struct {
	Type VectorStoreType `json:"type"`
}

// RetrievalConfig controls the query side of the pipeline.
type RetrievalConfig struct {
	TopK             int           `json:"top_k"`
	ScoreThreshold   *float64      `json:"score_threshold,omitempty"`
	RerankingEnabled bool          `json:"reranking_enabled"`
	RerankingTopK    int           `json:"reranking_top_k"`
	RerankerModel    RerankerModel `json:"reranker_model"`
}

// LLMConfig controls answer synthesis.
type LLMConfig struct {
	Provider    LLMProvider `json:"provider"`
	Model       string      `json:"model"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens"`
}

// PipelineConfig is the full per-pipeline configuration. It is immutable
// after the first successful ingest.
type PipelineConfig struct {
	Chunking    ChunkingConfig    `json:"chunking"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	Retrieval   RetrievalConfig   `json:"retrieval"`
	LLM         LLMConfig         `json:"llm"`
}

// Configuration bounds enforced at pipeline creation.
const (
	MinChunkSize       = 100
	MaxChunkSize       = 10000
	MaxChunkOverlap    = 2000
	MinTopK            = 1
	MaxTopK            = 50
	MaxRerankingTopK   = 20
	MaxPipelineNameLen = 255
)

// DefaultPipelineConfig returns the configuration applied when a create
// request omits fields.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Chunking: ChunkingConfig{
			Strategy:     ChunkingRecursive,
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider: EmbeddingChromaDefault,
		},
		VectorStore: VectorStoreConfig{
			Type: VectorStoreChroma,
		},
		Retrieval: RetrievalConfig{
			TopK:             10,
			RerankingEnabled: true,
			RerankingTopK:    5,
			RerankerModel:    RerankerQwen3,
		},
		LLM: LLMConfig{
			Provider:    LLMGemini,
			Model:       "gemini-2.5-flash",
			Temperature: 0.3,
			MaxTokens:   1500,
		},
	}
}
