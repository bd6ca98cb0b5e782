package llm

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
)

// DefaultModelFor returns the model used when a fallback attempt reaches a
// provider the pipeline did not configure.
func DefaultModelFor(p schema.LLMProvider) string {
	switch p {
	case schema.LLMGemini:
		return DefaultGeminiModel
	case schema.LLMGroq:
		return DefaultGroqModel
	case schema.LLMOpenRouter:
		return DefaultOpenRouterModel
	case schema.LLMOpenAI:
		return DefaultOpenAIModel
	case schema.LLMAnthropic:
		return DefaultAnthropicModel
	case schema.LLMDeepSeek:
		return DefaultDeepSeekModel
	}
	return ""
}

// BuildFunc constructs the client for one provider. Tests swap this to
// inject mocks.
type BuildFunc func(p schema.LLMProvider, apiKey string) ChatProvider

func defaultBuild(p schema.LLMProvider, apiKey string) ChatProvider {
	switch p {
	case schema.LLMGemini:
		return NewGeminiChat(apiKey)
	case schema.LLMGroq:
		return NewGroqChat(apiKey)
	case schema.LLMOpenRouter:
		return NewOpenRouterChat(apiKey)
	case schema.LLMOpenAI:
		return NewOpenAIChat(apiKey)
	case schema.LLMAnthropic:
		return NewAnthropicChat(apiKey)
	case schema.LLMDeepSeek:
		return NewDeepSeekChat(apiKey)
	}
	return nil
}

// Dispatcher runs chat completions with automatic provider fallback. The
// configured provider goes first when its key is set; the remaining
// providers follow in the order of schema.LLMProviders, each with its own
// default model. Providers without keys are skipped.
type Dispatcher struct {
	keys    settings.Source
	build   BuildFunc
	timeout time.Duration
	logger  *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherBuild replaces the provider constructor.
func WithDispatcherBuild(build BuildFunc) DispatcherOption {
	return func(d *Dispatcher) {
		d.build = build
	}
}

// WithDispatcherTimeout sets the per-attempt timeout.
func WithDispatcherTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher reading credentials from keys.
func NewDispatcher(keys settings.Source, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		keys:    keys,
		build:   defaultBuild,
		timeout: chatTimeout,
		logger:  slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type chatAttempt struct {
	provider schema.LLMProvider
	model    string
}

// Chat completes the prompt pair, falling back across providers until one
// succeeds. It returns the answer text and the provider that served it.
// When no provider key is configured, or every attempt fails, the error
// carries apperr.KindAllProvidersFailed.
func (d *Dispatcher) Chat(ctx context.Context, cfg schema.LLMConfig, system, user string) (string, schema.LLMProvider, error) {
	keys := d.keys.Keys()

	var attempts []chatAttempt
	if cfg.Provider.Valid() && keys.ForLLM(cfg.Provider) != "" {
		model := cfg.Model
		if model == "" {
			model = DefaultModelFor(cfg.Provider)
		}
		attempts = append(attempts, chatAttempt{provider: cfg.Provider, model: model})
	}
	for _, p := range schema.LLMProviders() {
		if p == cfg.Provider || keys.ForLLM(p) == "" {
			continue
		}
		attempts = append(attempts, chatAttempt{provider: p, model: DefaultModelFor(p)})
	}

	if len(attempts) == 0 {
		return "", "", apperr.New(apperr.KindAllProvidersFailed, "no LLM provider API keys configured")
	}

	opts := ChatOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}

	var lastErr error
	tried := make([]string, 0, len(attempts))
	for _, at := range attempts {
		client := d.build(at.provider, keys.ForLLM(at.provider))
		if client == nil {
			continue
		}
		opts.Model = at.model

		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		text, err := client.Chat(attemptCtx, system, user, opts)
		cancel()

		if err == nil {
			d.logger.Info("chat served", "provider", at.provider, "model", at.model)
			return text, at.provider, nil
		}

		tried = append(tried, string(at.provider))
		lastErr = err
		d.logger.Warn("chat attempt failed",
			"provider", at.provider,
			"model", at.model,
			"kind", string(apperr.ClassifyProviderErr(err)),
			"error", err)

		// The caller is gone, further fallback is pointless.
		if ctx.Err() != nil {
			break
		}
	}

	return "", "", apperr.Wrap(apperr.KindAllProvidersFailed, lastErr,
		"all LLM providers failed (tried %s)", strings.Join(tried, ", "))
}
