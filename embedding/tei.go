package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aqua777/ragpipe/apperr"
)

// teiTimeout bounds every embedding call to the local inference server.
const teiTimeout = 10 * time.Second

// Models served for the named local encoder providers.
const (
	TEIModelBGESmall = "BAAI/bge-small-en-v1.5"
	TEIModelMpnet    = "sentence-transformers/all-mpnet-base-v2"
	TEIModelRoberta  = "sentence-transformers/all-roberta-large-v1"
	TEIModelQwen3    = "Qwen/Qwen3-Embedding-0.6B"
	TEIModelMiniLM   = "sentence-transformers/all-MiniLM-L6-v2"
)

const teiDefaultBatch = 32

// TEIEmbedding talks to a text-embeddings-inference style endpoint that
// serves one local encoder model. The server loads the model once; this
// client stays stateless.
type TEIEmbedding struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// TEIEmbeddingOption configures a TEIEmbedding.
type TEIEmbeddingOption func(*TEIEmbedding)

// WithTEIHTTPClient sets a custom HTTP client.
func WithTEIHTTPClient(client *http.Client) TEIEmbeddingOption {
	return func(t *TEIEmbedding) {
		t.httpClient = client
	}
}

// WithTEILogger sets the logger.
func WithTEILogger(logger *slog.Logger) TEIEmbeddingOption {
	return func(t *TEIEmbedding) {
		t.logger = logger
	}
}

// NewTEIEmbedding creates a client for a local inference endpoint serving
// the given model.
func NewTEIEmbedding(baseURL, model string, opts ...TEIEmbeddingOption) *TEIEmbedding {
	t := &TEIEmbedding{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: teiTimeout},
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

type teiEmbedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate,omitempty"`
}

// GetTextEmbedding generates an embedding for a document text.
func (t *TEIEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	embeddings, err := t.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

// GetQueryEmbedding generates an embedding for a query.
func (t *TEIEmbedding) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return t.GetTextEmbedding(ctx, query)
}

// GetTextEmbeddingsBatch generates embeddings for multiple texts.
func (t *TEIEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += teiDefaultBatch {
		end := i + teiDefaultBatch
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := t.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to get embeddings for batch starting at %d: %w", i, err)
		}
		results = append(results, embeddings...)

		if callback != nil {
			callback(end, len(texts))
		}
	}
	return results, nil
}

func (t *TEIEmbedding) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	jsonBody, err := json.Marshal(teiEmbedRequest{Inputs: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.UpstreamError{Provider: "tei", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var embeddings [][]float64
	if err := json.Unmarshal(respBody, &embeddings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return embeddings, nil
}

// Info returns information about the model's capabilities.
func (t *TEIEmbedding) Info() EmbeddingInfo {
	switch t.model {
	case TEIModelBGESmall:
		return EmbeddingInfo{ModelName: t.model, Dimensions: 384, MaxTokens: 512}
	case TEIModelMpnet:
		return EmbeddingInfo{ModelName: t.model, Dimensions: 768, MaxTokens: 384}
	case TEIModelRoberta:
		return EmbeddingInfo{ModelName: t.model, Dimensions: 1024, MaxTokens: 512}
	case TEIModelQwen3:
		return EmbeddingInfo{ModelName: t.model, Dimensions: 1024, MaxTokens: 8192}
	case TEIModelMiniLM:
		return EmbeddingInfo{ModelName: t.model, Dimensions: 384, MaxTokens: 256}
	default:
		return EmbeddingInfo{ModelName: t.model, Dimensions: 384}
	}
}

var (
	_ EmbeddingModel          = (*TEIEmbedding)(nil)
	_ EmbeddingModelWithInfo  = (*TEIEmbedding)(nil)
	_ EmbeddingModelWithBatch = (*TEIEmbedding)(nil)
)
