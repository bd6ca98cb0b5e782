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
)

// HuggingFaceInferenceAPIURL is the default HuggingFace Inference API
// endpoint.
const HuggingFaceInferenceAPIURL = "https://api-inference.huggingface.co"

// Common HuggingFace embedding model names.
const (
	HFBGESmall                   = "BAAI/bge-small-en-v1.5"
	HFSentenceTransformersMiniLM = "sentence-transformers/all-MiniLM-L6-v2"
	HFSentenceTransformersMpnet  = "sentence-transformers/all-mpnet-base-v2"
)

// HuggingFaceEmbedding implements the EmbeddingModel interface for the
// HuggingFace Inference API.
type HuggingFaceEmbedding struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// HuggingFaceEmbeddingOption configures a HuggingFaceEmbedding.
type HuggingFaceEmbeddingOption func(*HuggingFaceEmbedding)

// WithHuggingFaceBaseURL sets the base URL, for tests.
func WithHuggingFaceBaseURL(baseURL string) HuggingFaceEmbeddingOption {
	return func(h *HuggingFaceEmbedding) {
		h.baseURL = baseURL
	}
}

// WithHuggingFaceHTTPClient sets a custom HTTP client.
func WithHuggingFaceHTTPClient(client *http.Client) HuggingFaceEmbeddingOption {
	return func(h *HuggingFaceEmbedding) {
		h.httpClient = client
	}
}

// NewHuggingFaceEmbedding creates a new HuggingFace Inference API client.
// An empty apiKey falls back to HUGGINGFACE_API_KEY; an empty modelName
// selects BGE-small.
func NewHuggingFaceEmbedding(apiKey, modelName string, opts ...HuggingFaceEmbeddingOption) *HuggingFaceEmbedding {
	if apiKey == "" {
		apiKey = os.Getenv("HUGGINGFACE_API_KEY")
	}
	if modelName == "" {
		modelName = HFBGESmall
	}

	h := &HuggingFaceEmbedding{
		apiKey:     apiKey,
		baseURL:    HuggingFaceInferenceAPIURL,
		model:      modelName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

type hfInferenceRequest struct {
	Inputs  string `json:"inputs"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options,omitempty"`
}

// GetTextEmbedding generates an embedding for a document text.
func (h *HuggingFaceEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	return h.getEmbedding(ctx, text)
}

// GetQueryEmbedding generates an embedding for a query.
func (h *HuggingFaceEmbedding) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return h.getEmbedding(ctx, query)
}

// GetTextEmbeddingsBatch generates embeddings for multiple texts. The
// Inference API embeds one input per request.
func (h *HuggingFaceEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	results := make([][]float64, len(texts))
	for i, text := range texts {
		embedding, err := h.getEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to get embedding for text %d: %w", i, err)
		}
		results[i] = embedding

		if callback != nil {
			callback(i+1, len(texts))
		}
	}
	return results, nil
}

func (h *HuggingFaceEmbedding) getEmbedding(ctx context.Context, text string) ([]float64, error) {
	reqBody := hfInferenceRequest{Inputs: text}
	reqBody.Options.WaitForModel = true

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		h.logger.Error("huggingface embedding failed", "model", h.model, "status", resp.StatusCode)
		return nil, fmt.Errorf("huggingface API error (%d): %s", resp.StatusCode, string(respBody))
	}

	// Pooled output comes back as a flat vector.
	var embedding []float64
	if err := json.Unmarshal(respBody, &embedding); err == nil {
		return embedding, nil
	}

	// Some sentence-transformers deployments nest the pooled vector.
	var nested [][]float64
	if err := json.Unmarshal(respBody, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	// Token-level output needs mean pooling.
	var tokenEmbeddings [][][]float64
	if err := json.Unmarshal(respBody, &tokenEmbeddings); err == nil && len(tokenEmbeddings) > 0 && len(tokenEmbeddings[0]) > 0 {
		return meanPool(tokenEmbeddings[0]), nil
	}

	return nil, fmt.Errorf("failed to parse embedding response: %s", string(respBody))
}

// meanPool computes mean pooling over token embeddings.
func meanPool(tokenEmbeddings [][]float64) []float64 {
	if len(tokenEmbeddings) == 0 {
		return nil
	}

	dims := len(tokenEmbeddings[0])
	result := make([]float64, dims)

	for _, token := range tokenEmbeddings {
		for i, v := range token {
			result[i] += v
		}
	}

	numTokens := float64(len(tokenEmbeddings))
	for i := range result {
		result[i] /= numTokens
	}

	return result
}

// Info returns information about the model's capabilities.
func (h *HuggingFaceEmbedding) Info() EmbeddingInfo {
	switch h.model {
	case HFBGESmall, HFSentenceTransformersMiniLM:
		return EmbeddingInfo{ModelName: h.model, Dimensions: 384, MaxTokens: 512}
	case HFSentenceTransformersMpnet:
		return EmbeddingInfo{ModelName: h.model, Dimensions: 768, MaxTokens: 384}
	default:
		return EmbeddingInfo{ModelName: h.model, Dimensions: 384}
	}
}

var (
	_ EmbeddingModel          = (*HuggingFaceEmbedding)(nil)
	_ EmbeddingModelWithInfo  = (*HuggingFaceEmbedding)(nil)
	_ EmbeddingModelWithBatch = (*HuggingFaceEmbedding)(nil)
)
