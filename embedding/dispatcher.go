package embedding

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
)

// Dispatcher resolves a pipeline's embedding configuration to a concrete
// encoder. Remote providers require an API key and the named local encoders
// require a configured inference endpoint; in either absence the dispatcher
// falls back to the bundled default encoder and reports a warning that
// callers surface in ingest and query responses.
type Dispatcher struct {
	teiBaseURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTEIBaseURL sets the local inference endpoint serving the named local
// encoders.
func WithTEIBaseURL(url string) DispatcherOption {
	return func(d *Dispatcher) {
		d.teiBaseURL = url
	}
}

// WithDispatcherHTTPClient sets the HTTP client used by resolved encoders.
func WithDispatcherHTTPClient(client *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		d.httpClient = client
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates an embedding dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Resolve returns the encoder for cfg, the tag identifying the encoder in
// collection metadata, and a warning when the configured provider was
// unavailable and the bundled default stood in. The model override in cfg
// applies to remote providers; the named local providers are fixed models.
func (d *Dispatcher) Resolve(cfg schema.EmbeddingConfig, keys settings.ProviderKeys) (EmbeddingModel, string, string) {
	provider := cfg.Provider
	if provider == "" {
		provider = schema.EmbeddingChromaDefault
	}

	switch provider {
	case schema.EmbeddingChromaDefault:
		return Default(), Tag(schema.EmbeddingChromaDefault, DefaultEmbeddingModelName), ""

	case schema.EmbeddingBGESmall, schema.EmbeddingSTMpnet, schema.EmbeddingSTRoberta,
		schema.EmbeddingQwen3, schema.EmbeddingSentenceTransformers:
		model := teiModelFor(provider)
		if d.teiBaseURL == "" {
			warning := fmt.Sprintf("embedding provider %q requires a local inference endpoint (RAGPIPE_TEI_EMBED_URL); using the bundled default encoder", provider)
			d.logger.Warn("embedding provider unavailable, falling back to default",
				"provider", provider, "reason", "no local inference endpoint")
			return Default(), Tag(schema.EmbeddingChromaDefault, DefaultEmbeddingModelName), warning
		}
		opts := []TEIEmbeddingOption{WithTEILogger(d.logger)}
		if d.httpClient != nil {
			opts = append(opts, WithTEIHTTPClient(d.httpClient))
		}
		return NewTEIEmbedding(d.teiBaseURL, model, opts...), Tag(provider, model), ""

	case schema.EmbeddingOpenAI:
		if keys.OpenAI == "" {
			return d.fallback(provider, "missing OPENAI_API_KEY")
		}
		model := NewOpenAIEmbedding(keys.OpenAI, cfg.Model)
		return model, Tag(provider, model.Info().ModelName), ""

	case schema.EmbeddingGoogle:
		if keys.Google == "" {
			return d.fallback(provider, "missing GOOGLE_API_KEY")
		}
		opts := []GoogleEmbeddingOption{WithGoogleEmbeddingLogger(d.logger)}
		if d.httpClient != nil {
			opts = append(opts, WithGoogleEmbeddingHTTPClient(d.httpClient))
		}
		model := NewGoogleEmbedding(keys.Google, cfg.Model, opts...)
		return model, Tag(provider, model.Info().ModelName), ""

	case schema.EmbeddingHuggingFace:
		if keys.HuggingFace == "" {
			return d.fallback(provider, "missing HUGGINGFACE_API_KEY")
		}
		var opts []HuggingFaceEmbeddingOption
		if d.httpClient != nil {
			opts = append(opts, WithHuggingFaceHTTPClient(d.httpClient))
		}
		model := NewHuggingFaceEmbedding(keys.HuggingFace, cfg.Model, opts...)
		return model, Tag(provider, model.Info().ModelName), ""
	}

	// Unknown providers are rejected at validation; an unexpected value
	// still gets a working encoder.
	return d.fallback(provider, "unknown provider")
}

func (d *Dispatcher) fallback(provider schema.EmbeddingProvider, reason string) (EmbeddingModel, string, string) {
	warning := fmt.Sprintf("embedding provider %q requires an API key; using the bundled default encoder", provider)
	if reason == "unknown provider" {
		warning = fmt.Sprintf("unknown embedding provider %q; using the bundled default encoder", provider)
	}
	d.logger.Warn("embedding provider unavailable, falling back to default",
		"provider", provider, "reason", reason)
	return Default(), Tag(schema.EmbeddingChromaDefault, DefaultEmbeddingModelName), warning
}

// Tag builds the collection metadata value that records which encoder
// produced the stored vectors.
func Tag(provider schema.EmbeddingProvider, modelName string) string {
	return string(provider) + ":" + modelName
}

func teiModelFor(provider schema.EmbeddingProvider) string {
	switch provider {
	case schema.EmbeddingBGESmall:
		return TEIModelBGESmall
	case schema.EmbeddingSTMpnet:
		return TEIModelMpnet
	case schema.EmbeddingSTRoberta:
		return TEIModelRoberta
	case schema.EmbeddingQwen3:
		return TEIModelQwen3
	default:
		return TEIModelMiniLM
	}
}
