package driven

// PromptStore supplies the prompt texts used to build generation requests.
type PromptStore interface {
	// Load returns the named prompt. Names from DefaultPrompts always
	// resolve, falling back to the built-in text.
	Load(name string) (string, error)

	// Reload drops cached texts so the next Load reads them again.
	Reload()
}

// Prompt names.
const (
	// PromptAnswerSystem is the system prompt for answer generation.
	PromptAnswerSystem = "answer_system"
	// PromptAnswerIntro opens the user prompt, before history and context.
	PromptAnswerIntro = "answer_intro"
	// PromptAnswerClosing follows the question.
	PromptAnswerClosing = "answer_closing"
)

// DefaultPrompts returns the built-in prompt texts keyed by prompt name.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptAnswerSystem: `You are a helpful AI assistant that answers questions based ONLY on the provided document context.

Your job is to:
1. Read through the provided context carefully
2. Answer the user's question using ONLY information from the context
3. Be accurate and comprehensive
4. If the context doesn't contain enough information, say so honestly
5. Synthesize information from multiple sources when relevant
6. Maintain a helpful and professional tone

Important rules:
- NEVER make up information that's not in the context
- If you're unsure, say "Based on the provided documents..."
- If the context is insufficient, suggest what additional information might be needed
- Always be honest about the limitations of your knowledge based on the provided context`,

		PromptAnswerIntro: `Please answer the following question based on the document context provided below.`,

		PromptAnswerClosing: `Please provide a helpful and accurate answer based on the context above. If you reference specific information, it should come from the provided sources.`,
	}
}
