package driven

import "context"

// LLMService completes a prompt pair. It is optional: without one, answers
// carry citations and a fixed explanatory text.
type LLMService interface {
	// Complete returns the model's reply. Failures, including ctx expiry,
	// are *domain.GenerationError.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions are the sampling parameters every provider understands.
type GenerateOptions struct {
	MaxTokens int
	// Temperature ranges from 0 (deterministic) upward.
	Temperature float64
	// TopP is the nucleus sampling threshold.
	TopP float64
}
