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
	GeminiAPIURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel is used when a call does not name a model.
	DefaultGeminiModel = "gemini-2.0-flash"
)

// GeminiChat is a chat client for the Google Generative Language API.
type GeminiChat struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// GeminiOption configures a GeminiChat.
type GeminiOption func(*GeminiChat)

// WithGeminiBaseURL overrides the API base URL.
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(g *GeminiChat) {
		g.baseURL = baseURL
	}
}

// WithGeminiHTTPClient sets a custom HTTP client.
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(g *GeminiChat) {
		g.httpClient = client
	}
}

// WithGeminiLogger sets the logger.
func WithGeminiLogger(logger *slog.Logger) GeminiOption {
	return func(g *GeminiChat) {
		g.logger = logger
	}
}

// NewGeminiChat creates a client for the Google Generative Language API.
func NewGeminiChat(apiKey string, opts ...GeminiOption) *GeminiChat {
	g := &GeminiChat{
		apiKey:     apiKey,
		model:      DefaultGeminiModel,
		baseURL:    GeminiAPIURL,
		httpClient: &http.Client{Timeout: chatTimeout},
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements ChatProvider.
func (g *GeminiChat) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Chat implements ChatProvider.
func (g *GeminiChat) Chat(ctx context.Context, system, user string, opts ChatOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = g.model
	}
	g.logger.Info("chat request", "provider", "gemini", "model", model, "user_len", len(user))

	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if system != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apperr.UpstreamError{Provider: "gemini", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed geminiGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

var _ ChatProvider = (*GeminiChat)(nil)
