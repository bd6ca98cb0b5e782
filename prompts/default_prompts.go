package prompts

// Default prompt templates for answer synthesis and reranking.

// DefaultRAGSystemPrompt is the fixed system prompt for grounded answer
// synthesis. The rules keep the model inside the retrieved context.
const DefaultRAGSystemPrompt = `You are a precise research assistant that answers questions based ONLY on the provided context. Follow these rules:
1. Answer the user's question using ONLY information from the context below.
2. If the context does not contain enough information to answer, say so clearly.
3. Be concise and well-structured; use Markdown formatting where it helps.
4. Cite the source file names your information comes from when relevant.
5. Do NOT make up information that is not in the context.`

// DefaultRAGAnswerPromptTmpl carries the retrieved context and the user's
// question to the model.
const DefaultRAGAnswerPromptTmpl = `Context from documents:

{context_str}

---

Question: {query_str}

Please provide a clear, well-structured answer based on the context above.`

// DefaultRerankPromptTmpl asks the model to score each candidate passage
// for relevance. The response must be a bare JSON array so it can be
// parsed without any surrounding prose.
const DefaultRerankPromptTmpl = `You are scoring passages for relevance to a query.

Query: {query_str}

Passages:
{candidate_list}

Rate the relevance of each passage to the query on a scale from 0.0 (irrelevant) to 1.0 (highly relevant).
Return ONLY a JSON array of {num_candidates} floats, one per passage, in the same order as the passages above. No explanation, no other text.`

// Default prompt instances.
var (
	DefaultRAGAnswerPrompt = NewPromptTemplate(DefaultRAGAnswerPromptTmpl, PromptTypeQuestionAnswer)
	DefaultRerankPrompt    = NewPromptTemplate(DefaultRerankPromptTmpl, PromptTypeRerank)
)

// GetDefaultPrompt returns a default prompt by type.
func GetDefaultPrompt(promptType PromptType) *PromptTemplate {
	switch promptType {
	case PromptTypeQuestionAnswer:
		return DefaultRAGAnswerPrompt
	case PromptTypeRerank:
		return DefaultRerankPrompt
	default:
		return nil
	}
}
