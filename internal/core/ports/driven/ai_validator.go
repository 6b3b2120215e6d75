package driven

import "github.com/custodia-labs/ragcore/internal/core/domain"

// AIConfigValidator checks provider settings against the live service before
// they are saved, so a typo in a model name or key fails at `settings set`
// rather than on the first query. A provider that is not configured passes.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
