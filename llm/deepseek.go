package llm

const (
	DeepSeekAPIURL = "https://api.deepseek.com/v1"

	// DefaultDeepSeekModel is used when a call does not name a model.
	DefaultDeepSeekModel = "deepseek-chat"
)

// NewDeepSeekChat creates a client for DeepSeek's OpenAI-compatible chat
// endpoint.
func NewDeepSeekChat(apiKey string, opts ...OpenAICompatOption) *OpenAICompatChat {
	return NewOpenAICompatChat("deepseek", DeepSeekAPIURL, apiKey, DefaultDeepSeekModel, opts...)
}
