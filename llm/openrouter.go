package llm

const (
	OpenRouterAPIURL = "https://openrouter.ai/api/v1"

	// DefaultOpenRouterModel is used when a call does not name a model.
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
)

// NewOpenRouterChat creates a client for OpenRouter's OpenAI-compatible
// chat endpoint.
func NewOpenRouterChat(apiKey string, opts ...OpenAICompatOption) *OpenAICompatChat {
	return NewOpenAICompatChat("openrouter", OpenRouterAPIURL, apiKey, DefaultOpenRouterModel, opts...)
}
