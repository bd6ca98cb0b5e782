// Package settings resolves provider credentials. Keys are fetched once per
// request and never cached beyond request scope, so rotated keys take effect
// without a restart.
package settings

import (
	"os"

	"github.com/aqua777/ragpipe/schema"
)

// ProviderKeys is a point-in-time snapshot of provider credentials.
type ProviderKeys struct {
	OpenAI      string
	Google      string
	Anthropic   string
	DeepSeek    string
	Groq        string
	OpenRouter  string
	HuggingFace string
}

// Source yields provider credentials. Implementations are read on every
// request.
type Source interface {
	Keys() ProviderKeys
}

// EnvSource reads credentials from the process environment on every call.
type EnvSource struct{}

var _ Source = EnvSource{}

// Keys implements Source.
func (EnvSource) Keys() ProviderKeys {
	return ProviderKeys{
		OpenAI:      os.Getenv("OPENAI_API_KEY"),
		Google:      os.Getenv("GOOGLE_API_KEY"),
		Anthropic:   os.Getenv("ANTHROPIC_API_KEY"),
		DeepSeek:    os.Getenv("DEEPSEEK_API_KEY"),
		Groq:        os.Getenv("GROQ_API_KEY"),
		OpenRouter:  os.Getenv("OPENROUTER_API_KEY"),
		HuggingFace: os.Getenv("HUGGINGFACE_API_KEY"),
	}
}

// StaticSource returns fixed credentials, for tests.
type StaticSource struct {
	Fixed ProviderKeys
}

var _ Source = StaticSource{}

// Keys implements Source.
func (s StaticSource) Keys() ProviderKeys {
	return s.Fixed
}

// ForLLM returns the key for a chat provider, empty when unset.
func (k ProviderKeys) ForLLM(p schema.LLMProvider) string {
	switch p {
	case schema.LLMOpenAI:
		return k.OpenAI
	case schema.LLMGemini:
		return k.Google
	case schema.LLMAnthropic:
		return k.Anthropic
	case schema.LLMDeepSeek:
		return k.DeepSeek
	case schema.LLMGroq:
		return k.Groq
	case schema.LLMOpenRouter:
		return k.OpenRouter
	}
	return ""
}

// ForEmbedding returns the key for a remote embedding provider, empty for
// local providers and when unset.
func (k ProviderKeys) ForEmbedding(p schema.EmbeddingProvider) string {
	switch p {
	case schema.EmbeddingOpenAI:
		return k.OpenAI
	case schema.EmbeddingGoogle:
		return k.Google
	case schema.EmbeddingHuggingFace:
		return k.HuggingFace
	}
	return ""
}
