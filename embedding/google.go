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

const (
	// GoogleAPIURL is the Generative Language API endpoint.
	GoogleAPIURL = "https://generativelanguage.googleapis.com/v1beta"
	// GoogleDefaultEmbeddingModel is used when no model is configured.
	GoogleDefaultEmbeddingModel = "text-embedding-004"

	googleBatchSize = 100
)

// GoogleEmbedding implements the EmbeddingModel interface for the Gemini
// embedding API.
type GoogleEmbedding struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// GoogleEmbeddingOption configures a GoogleEmbedding.
type GoogleEmbeddingOption func(*GoogleEmbedding)

// WithGoogleEmbeddingBaseURL sets the base URL, for tests.
func WithGoogleEmbeddingBaseURL(baseURL string) GoogleEmbeddingOption {
	return func(g *GoogleEmbedding) {
		g.baseURL = baseURL
	}
}

// WithGoogleEmbeddingHTTPClient sets a custom HTTP client.
func WithGoogleEmbeddingHTTPClient(client *http.Client) GoogleEmbeddingOption {
	return func(g *GoogleEmbedding) {
		g.httpClient = client
	}
}

// WithGoogleEmbeddingLogger sets the logger.
func WithGoogleEmbeddingLogger(logger *slog.Logger) GoogleEmbeddingOption {
	return func(g *GoogleEmbedding) {
		g.logger = logger
	}
}

// NewGoogleEmbedding creates a new Gemini embedding client. An empty apiKey
// falls back to GOOGLE_API_KEY; an empty modelName selects
// text-embedding-004.
func NewGoogleEmbedding(apiKey, modelName string, opts ...GoogleEmbeddingOption) *GoogleEmbedding {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if modelName == "" {
		modelName = GoogleDefaultEmbeddingModel
	}

	g := &GoogleEmbedding{
		apiKey:     apiKey,
		baseURL:    GoogleAPIURL,
		model:      modelName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleEmbedRequest struct {
	Model   string        `json:"model"`
	Content googleContent `json:"content"`
}

type googleBatchEmbedRequest struct {
	Requests []googleEmbedRequest `json:"requests"`
}

type googleEmbeddingValues struct {
	Values []float64 `json:"values"`
}

type googleEmbedResponse struct {
	Embedding googleEmbeddingValues `json:"embedding"`
}

type googleBatchEmbedResponse struct {
	Embeddings []googleEmbeddingValues `json:"embeddings"`
}

// GetTextEmbedding generates an embedding for a document text.
func (g *GoogleEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	body := googleEmbedRequest{
		Model:   "models/" + g.model,
		Content: googleContent{Parts: []googlePart{{Text: text}}},
	}

	respBody, err := g.post(ctx, fmt.Sprintf("/models/%s:embedContent", g.model), body)
	if err != nil {
		return nil, err
	}

	var parsed googleEmbedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("google returned no embedding")
	}
	return parsed.Embedding.Values, nil
}

// GetQueryEmbedding generates an embedding for a query.
func (g *GoogleEmbedding) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return g.GetTextEmbedding(ctx, query)
}

// GetTextEmbeddingsBatch generates embeddings for multiple texts.
func (g *GoogleEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += googleBatchSize {
		end := i + googleBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		requests := make([]googleEmbedRequest, 0, end-i)
		for _, text := range texts[i:end] {
			requests = append(requests, googleEmbedRequest{
				Model:   "models/" + g.model,
				Content: googleContent{Parts: []googlePart{{Text: text}}},
			})
		}

		respBody, err := g.post(ctx, fmt.Sprintf("/models/%s:batchEmbedContents", g.model), googleBatchEmbedRequest{Requests: requests})
		if err != nil {
			return nil, fmt.Errorf("failed to get embeddings for batch starting at %d: %w", i, err)
		}

		var parsed googleBatchEmbedResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if len(parsed.Embeddings) != end-i {
			return nil, fmt.Errorf("google returned %d embeddings for %d inputs", len(parsed.Embeddings), end-i)
		}
		for _, item := range parsed.Embeddings {
			results = append(results, item.Values)
		}

		if callback != nil {
			callback(end, len(texts))
		}
	}
	return results, nil
}

func (g *GoogleEmbedding) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := g.baseURL + path + "?key=" + g.apiKey
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("google embedding failed", "model", g.model, "status", resp.StatusCode)
		return nil, fmt.Errorf("google API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Info returns information about the model's capabilities.
func (g *GoogleEmbedding) Info() EmbeddingInfo {
	return EmbeddingInfo{ModelName: g.model, Dimensions: 768, MaxTokens: 2048}
}

var (
	_ EmbeddingModel          = (*GoogleEmbedding)(nil)
	_ EmbeddingModelWithInfo  = (*GoogleEmbedding)(nil)
	_ EmbeddingModelWithBatch = (*GoogleEmbedding)(nil)
)
