package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aqua777/ragpipe/apperr"
)

const (
	AnthropicAPIURL     = "https://api.anthropic.com/v1"
	AnthropicAPIVersion = "2023-06-01"

	// DefaultAnthropicModel is used when a call does not name a model.
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// The messages API rejects requests without max_tokens.
const anthropicFallbackMaxTokens = 1024

// AnthropicChat is a chat client for the Anthropic messages API.
type AnthropicChat struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// AnthropicOption configures an AnthropicChat.
type AnthropicOption func(*AnthropicChat)

// WithAnthropicBaseURL overrides the API base URL.
func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(a *AnthropicChat) {
		a.baseURL = baseURL
	}
}

// WithAnthropicHTTPClient sets a custom HTTP client.
func WithAnthropicHTTPClient(client *http.Client) AnthropicOption {
	return func(a *AnthropicChat) {
		a.httpClient = client
	}
}

// WithAnthropicLogger sets the logger.
func WithAnthropicLogger(logger *slog.Logger) AnthropicOption {
	return func(a *AnthropicChat) {
		a.logger = logger
	}
}

// NewAnthropicChat creates a client for the Anthropic messages API.
func NewAnthropicChat(apiKey string, opts ...AnthropicOption) *AnthropicChat {
	a := &AnthropicChat{
		apiKey:     apiKey,
		model:      DefaultAnthropicModel,
		baseURL:    AnthropicAPIURL,
		httpClient: &http.Client{Timeout: chatTimeout},
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements ChatProvider.
func (a *AnthropicChat) Name() string {
	return "anthropic"
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Chat implements ChatProvider.
func (a *AnthropicChat) Chat(ctx context.Context, system, user string, opts ChatOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = a.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicFallbackMaxTokens
	}
	a.logger.Info("chat request", "provider", "anthropic", "model", model, "user_len", len(user))

	reqBody := anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: user}},
		Temperature: opts.Temperature,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", AnthropicAPIVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apperr.UpstreamError{Provider: "anthropic", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode anthropic response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("anthropic returned no text content")
}

var _ ChatProvider = (*AnthropicChat)(nil)
