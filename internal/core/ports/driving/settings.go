package driving

import "github.com/custodia-labs/ragcore/internal/core/domain"

// SettingsService reads and edits the persisted configuration. Changes take
// effect the next time the application starts.
type SettingsService interface {
	// Get returns the stored settings layered over the defaults, with API
	// keys falling back to the provider's environment variable.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error

	// Set parses value for the dotted key (for example "retrieval.top_k")
	// and saves it if the result validates.
	Set(key, value string) error

	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	Validate() error
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig and ValidateLLMConfig contact the configured
	// providers. They return nil when the provider needs no check.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
