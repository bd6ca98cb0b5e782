// Package prompts provides the prompt templates used for answer synthesis
// and LLM-based reranking.
package prompts

// PromptType represents the type/category of a prompt.
type PromptType string

const (
	// PromptTypeQuestionAnswer is for grounded question answering over
	// retrieved context.
	PromptTypeQuestionAnswer PromptType = "text_qa"

	// PromptTypeRerank is for relevance scoring of retrieved candidates.
	PromptTypeRerank PromptType = "rerank"

	// PromptTypeCustom is the default for user-supplied templates.
	PromptTypeCustom PromptType = "custom"
)

// String returns the string representation of the prompt type.
func (pt PromptType) String() string {
	return string(pt)
}
