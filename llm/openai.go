package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aqua777/ragpipe/apperr"
)

const (
	OpenAIAPIURL = "https://api.openai.com/v1"

	// DefaultOpenAIModel is used when a call does not name a model.
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAICompatChat is a chat client for any endpoint speaking the OpenAI
// chat completions protocol. The hosted OpenAI, Groq, OpenRouter and
// DeepSeek backends are all thin constructors over this type.
type OpenAICompatChat struct {
	name       string
	model      string
	baseURL    string
	httpClient *http.Client
	client     *openai.Client
	logger     *slog.Logger
}

// OpenAICompatOption configures an OpenAICompatChat.
type OpenAICompatOption func(*OpenAICompatChat)

// WithCompatBaseURL overrides the endpoint base URL.
func WithCompatBaseURL(baseURL string) OpenAICompatOption {
	return func(c *OpenAICompatChat) {
		c.baseURL = baseURL
	}
}

// WithCompatHTTPClient sets a custom HTTP client.
func WithCompatHTTPClient(client *http.Client) OpenAICompatOption {
	return func(c *OpenAICompatChat) {
		c.httpClient = client
	}
}

// WithCompatLogger sets the logger.
func WithCompatLogger(logger *slog.Logger) OpenAICompatOption {
	return func(c *OpenAICompatChat) {
		c.logger = logger
	}
}

// NewOpenAICompatChat creates a client for an OpenAI-compatible endpoint.
// name tags log lines and errors, model is the default when a call leaves
// ChatOptions.Model empty.
func NewOpenAICompatChat(name, baseURL, apiKey, model string, opts ...OpenAICompatOption) *OpenAICompatChat {
	c := &OpenAICompatChat{
		name:    name,
		model:   model,
		baseURL: baseURL,
		logger:  slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	if c.httpClient != nil {
		cfg.HTTPClient = c.httpClient
	}
	c.client = openai.NewClientWithConfig(cfg)

	return c
}

// NewOpenAIChat creates a client for the hosted OpenAI API.
func NewOpenAIChat(apiKey string, opts ...OpenAICompatOption) *OpenAICompatChat {
	return NewOpenAICompatChat("openai", OpenAIAPIURL, apiKey, DefaultOpenAIModel, opts...)
}

// Name implements ChatProvider.
func (c *OpenAICompatChat) Name() string {
	return c.name
}

// Chat implements ChatProvider.
func (c *OpenAICompatChat) Chat(ctx context.Context, system, user string, opts ChatOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	c.logger.Info("chat request", "provider", c.name, "model", model, "user_len", len(user))

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &apperr.UpstreamError{Provider: c.name, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("%s chat completion: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.name)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ ChatProvider = (*OpenAICompatChat)(nil)
