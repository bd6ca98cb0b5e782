package postprocessor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/schema"
)

// rerankTimeout bounds every call to the local reranker endpoint.
const rerankTimeout = 10 * time.Second

// rerankTruncateChars caps the document text sent for scoring. The
// cross-encoder judges relevance from the opening of a chunk, and the
// endpoint rejects oversized inputs.
const rerankTruncateChars = 500

var (
	rerankClientOnce sync.Once
	rerankClient     *http.Client
)

// sharedRerankClient returns the process-wide HTTP client for rerank
// calls. Rerankers are built per query; the transport is shared so
// connections to the local endpoint are reused.
func sharedRerankClient() *http.Client {
	rerankClientOnce.Do(func() {
		rerankClient = &http.Client{Timeout: rerankTimeout}
	})
	return rerankClient
}

// TEIRerank scores query-document pairs with a cross-encoder served by a
// text-embeddings-inference style endpoint.
type TEIRerank struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// TEIRerankOption configures a TEIRerank.
type TEIRerankOption func(*TEIRerank)

// WithTEIRerankHTTPClient sets a custom HTTP client.
func WithTEIRerankHTTPClient(client *http.Client) TEIRerankOption {
	return func(r *TEIRerank) {
		r.httpClient = client
	}
}

// WithTEIRerankLogger sets the logger.
func WithTEIRerankLogger(logger *slog.Logger) TEIRerankOption {
	return func(r *TEIRerank) {
		r.logger = logger
	}
}

// NewTEIRerank creates a client for a local rerank endpoint.
func NewTEIRerank(baseURL string, opts ...TEIRerankOption) *TEIRerank {
	r := &TEIRerank{
		baseURL:    baseURL,
		httpClient: sharedRerankClient(),
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Name returns the reranker model name.
func (r *TEIRerank) Name() string {
	return string(schema.RerankerQwen3)
}

type teiRerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// Rerank scores each result against the query and returns the top K by
// cross-encoder score.
func (r *TEIRerank) Rerank(ctx context.Context, query string, results []schema.SearchResult, topK int) ([]schema.SearchResult, error) {
	if len(results) == 0 {
		return nil, nil
	}
	if r.baseURL == "" {
		return nil, apperr.New(apperr.KindInternal, "no rerank endpoint configured")
	}

	capped := capCandidates(results)
	texts := make([]string, len(capped))
	for i, res := range capped {
		text := res.Content
		if len(text) > rerankTruncateChars {
			text = text[:rerankTruncateChars]
		}
		texts[i] = text
	}

	scores, err := r.score(ctx, query, texts)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(capped) {
		return nil, fmt.Errorf("rerank endpoint returned %d scores for %d texts", len(scores), len(capped))
	}

	return applyScores(capped, scores, topK), nil
}

func (r *TEIRerank) score(ctx context.Context, query string, texts []string) ([]float64, error) {
	jsonBody, err := json.Marshal(teiRerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.UpstreamError{Provider: "tei-rerank", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var scores []float64
	if err := json.Unmarshal(respBody, &scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return scores, nil
}

var _ Reranker = (*TEIRerank)(nil)
