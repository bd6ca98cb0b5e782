package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openaiBatchSize bounds one embeddings request.
const openaiBatchSize = 100

// OpenAIEmbedding implements the EmbeddingModel interface for the OpenAI
// embeddings API.
type OpenAIEmbedding struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *slog.Logger
}

// NewOpenAIEmbedding creates a new OpenAI embedding client. An empty apiKey
// falls back to OPENAI_API_KEY; an empty modelName selects
// text-embedding-3-small.
func NewOpenAIEmbedding(apiKey string, modelName string) *OpenAIEmbedding {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: 10 * time.Second}

	return newOpenAIEmbedding(openai.NewClientWithConfig(config), modelName)
}

// NewOpenAIEmbeddingWithClient creates an OpenAI embedding client around an
// existing API client, for tests and custom transports.
func NewOpenAIEmbeddingWithClient(client *openai.Client, modelName string) *OpenAIEmbedding {
	return newOpenAIEmbedding(client, modelName)
}

func newOpenAIEmbedding(client *openai.Client, modelName string) *OpenAIEmbedding {
	model := openai.SmallEmbedding3
	if modelName != "" {
		model = openai.EmbeddingModel(modelName)
	}

	return &OpenAIEmbedding{
		client: client,
		model:  model,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// GetTextEmbedding generates an embedding for a document text.
func (o *OpenAIEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	vectors, err := o.createEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GetQueryEmbedding generates an embedding for a query.
func (o *OpenAIEmbedding) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return o.GetTextEmbedding(ctx, query)
}

// GetTextEmbeddingsBatch generates embeddings for multiple texts.
func (o *OpenAIEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += openaiBatchSize {
		end := i + openaiBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := o.createEmbeddings(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to get embeddings for batch starting at %d: %w", i, err)
		}
		results = append(results, vectors...)

		if callback != nil {
			callback(end, len(texts))
		}
	}
	return results, nil
}

func (o *OpenAIEmbedding) createEmbeddings(ctx context.Context, inputs []string) ([][]float64, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: o.model,
	})
	if err != nil {
		o.logger.Error("openai embedding failed", "model", o.model, "error", err)
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}

	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(inputs))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, item := range resp.Data {
		vec := make([]float64, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Info returns information about the model's capabilities.
func (o *OpenAIEmbedding) Info() EmbeddingInfo {
	switch o.model {
	case openai.LargeEmbedding3:
		return EmbeddingInfo{ModelName: string(o.model), Dimensions: 3072, MaxTokens: 8191}
	case openai.AdaEmbeddingV2:
		return EmbeddingInfo{ModelName: string(o.model), Dimensions: 1536, MaxTokens: 8191}
	default:
		return EmbeddingInfo{ModelName: string(o.model), Dimensions: 1536, MaxTokens: 8191}
	}
}

var (
	_ EmbeddingModel          = (*OpenAIEmbedding)(nil)
	_ EmbeddingModelWithInfo  = (*OpenAIEmbedding)(nil)
	_ EmbeddingModelWithBatch = (*OpenAIEmbedding)(nil)
)
