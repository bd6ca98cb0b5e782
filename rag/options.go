package rag

import "github.com/aqua777/ragpipe/schema"

// ConfigOptions enumerates every configuration choice the service
// accepts, with display labels for a pipeline builder UI, plus the
// defaults applied when a creation request omits a block.
func (e *Engine) ConfigOptions() schema.ConfigOptions {
	defaults := schema.DefaultPipelineConfig()
	return schema.ConfigOptions{
		ChunkingStrategies: []schema.ConfigOption{
			{Value: string(schema.ChunkingFixedSize), Label: "Fixed Size",
				Description: "Split text into fixed character count chunks"},
			{Value: string(schema.ChunkingRecursive), Label: "Recursive",
				Description: "Recursively split using hierarchy of separators (recommended)"},
			{Value: string(schema.ChunkingSentence), Label: "Sentence",
				Description: "Split text by sentences, grouping into chunks"},
			{Value: string(schema.ChunkingParagraph), Label: "Paragraph",
				Description: "Split text by paragraphs"},
			{Value: string(schema.ChunkingSemantic), Label: "Semantic",
				Description: "Split where embedding similarity between sentences drops"},
		},
		EmbeddingProviders: []schema.ConfigOption{
			{Value: string(schema.EmbeddingChromaDefault), Label: "Built-in Default",
				Description: "Bundled local encoder, no API key needed"},
			{Value: string(schema.EmbeddingBGESmall), Label: "BGE Small (bge-small-en-v1.5)",
				Description: "Compact English model served by the local embedding endpoint"},
			{Value: string(schema.EmbeddingSTMpnet), Label: "MPNet (all-mpnet-base-v2)",
				Description: "General purpose sentence transformer, served locally"},
			{Value: string(schema.EmbeddingSTRoberta), Label: "RoBERTa (all-roberta-large-v1)",
				Description: "Large sentence transformer, served locally"},
			{Value: string(schema.EmbeddingQwen3), Label: "Qwen3 Embedding (Qwen3-Embedding-0.6B)",
				Description: "Multilingual embedding model, served locally"},
			{Value: string(schema.EmbeddingOpenAI), Label: "OpenAI Embeddings",
				Description: "OpenAI text-embedding-3-small/large (requires API key)"},
			{Value: string(schema.EmbeddingGoogle), Label: "Google Embeddings",
				Description: "Google text-embedding-004 (requires API key)"},
			{Value: string(schema.EmbeddingSentenceTransformers), Label: "Sentence Transformers (all-MiniLM-L6-v2)",
				Description: "Reference sentence transformer, served locally"},
			{Value: string(schema.EmbeddingHuggingFace), Label: "Hugging Face Embeddings",
				Description: "Hugging Face inference API models (requires API key)"},
		},
		VectorStores: []schema.ConfigOption{
			{Value: string(schema.VectorStoreChroma), Label: "Chroma",
				Description: "Embedded vector database, persisted locally"},
		},
		LLMProviders: []schema.ConfigOption{
			{Value: string(schema.LLMGemini), Label: "Google Gemini",
				Description: "Gemini chat models (requires API key)"},
			{Value: string(schema.LLMGroq), Label: "Groq",
				Description: "Llama models on Groq hardware (requires API key)"},
			{Value: string(schema.LLMOpenRouter), Label: "OpenRouter",
				Description: "Many models behind one API (requires API key)"},
			{Value: string(schema.LLMOpenAI), Label: "OpenAI",
				Description: "GPT chat models (requires API key)"},
			{Value: string(schema.LLMAnthropic), Label: "Anthropic",
				Description: "Claude chat models (requires API key)"},
			{Value: string(schema.LLMDeepSeek), Label: "DeepSeek",
				Description: "DeepSeek chat models (requires API key)"},
		},
		RerankerModels: []schema.ConfigOption{
			{Value: string(schema.RerankerQwen3), Label: "Qwen3 Reranker",
				Description: "Local cross-encoder scoring via the rerank endpoint, no API key needed"},
			{Value: string(schema.RerankerLLM), Label: "LLM Reranker",
				Description: "Scores candidates with the pipeline's chat model"},
		},
		Defaults: schema.ConfigDefaults{
			ChunkingStrategy:  defaults.Chunking.Strategy,
			ChunkSize:         defaults.Chunking.ChunkSize,
			ChunkOverlap:      defaults.Chunking.ChunkOverlap,
			EmbeddingProvider: defaults.Embedding.Provider,
			VectorStore:       defaults.VectorStore.Type,
			TopK:              defaults.Retrieval.TopK,
			RerankingEnabled:  defaults.Retrieval.RerankingEnabled,
			RerankingTopK:     defaults.Retrieval.RerankingTopK,
			RerankerModel:     defaults.Retrieval.RerankerModel,
			LLMProvider:       defaults.LLM.Provider,
			LLMModel:          defaults.LLM.Model,
		},
	}
}
