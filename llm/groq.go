package llm

const (
	GroqAPIURL = "https://api.groq.com/openai/v1"

	// DefaultGroqModel is used when a call does not name a model.
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// NewGroqChat creates a client for Groq's OpenAI-compatible chat endpoint.
func NewGroqChat(apiKey string, opts ...OpenAICompatOption) *OpenAICompatChat {
	return NewOpenAICompatChat("groq", GroqAPIURL, apiKey, DefaultGroqModel, opts...)
}
