package embedding

import "context"

// EmbeddingModel is the interface for generating text embeddings.
type EmbeddingModel interface {
	// GetTextEmbedding generates an embedding for a document text.
	GetTextEmbedding(ctx context.Context, text string) ([]float64, error)
	// GetQueryEmbedding generates an embedding for a query. Often the same
	// as GetTextEmbedding, but some models treat queries differently.
	GetQueryEmbedding(ctx context.Context, query string) ([]float64, error)
}

// EmbeddingModelWithInfo extends EmbeddingModel with model metadata.
type EmbeddingModelWithInfo interface {
	EmbeddingModel
	// Info returns information about the model's capabilities.
	Info() EmbeddingInfo
}

// EmbeddingModelWithBatch extends EmbeddingModel with batch processing.
type EmbeddingModelWithBatch interface {
	EmbeddingModel
	// GetTextEmbeddingsBatch generates embeddings for multiple texts.
	// The callback is optional and reports progress.
	GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error)
}

// ProgressCallback reports batch progress: current items done out of total.
type ProgressCallback func(current, total int)

// EmbeddingInfo contains metadata about an embedding model.
type EmbeddingInfo struct {
	// ModelName is the name/identifier of the model.
	ModelName string `json:"model_name"`
	// Dimensions is the length of produced vectors.
	Dimensions int `json:"dimensions"`
	// MaxTokens is the maximum input the model can process.
	MaxTokens int `json:"max_tokens"`
}

// BatchEmbed embeds texts through the batch interface when the model
// supports it, one call per text otherwise.
func BatchEmbed(ctx context.Context, model EmbeddingModel, texts []string) ([][]float64, error) {
	if batcher, ok := model.(EmbeddingModelWithBatch); ok {
		return batcher.GetTextEmbeddingsBatch(ctx, texts, nil)
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := model.GetTextEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}
