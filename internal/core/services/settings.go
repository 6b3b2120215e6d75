package services

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedBatchSize    = "embedding.batch_size"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMTemperature    = "llm.temperature"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyLLMTopP           = "llm.top_p"
	keyChunkSize         = "chunker.chunk_size"
	keyChunkOverlap      = "chunker.overlap"
	keyTopK              = "retrieval.top_k"
	keyHistoryWindow     = "retrieval.history_window"
	keyGenerationTimeout = "retrieval.generation_timeout"
	keyPreviewLength     = "retrieval.preview_length"
	keyStorageBackend    = "storage.backend"
	keyStorageDataDir    = "storage.data_dir"
	keySaveOnWrite       = "storage.save_on_write"
	keyAutosave          = "storage.autosave"
)

// apiKeyEnv maps providers to the environment variables holding their keys.
// Environment keys are used only when the config file has none.
//
//nolint:gosec // G101: These are variable names, not credentials.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderGemini:    "GEMINI_API_KEY",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator is optional; without it connectivity checks are skipped.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(),
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, 0),
			BatchSize:  s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.configStore.GetString(keyLLMModel),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			TopP:        s.getFloat(keyLLMTopP, d.LLM.TopP),
		},
		Chunker: domain.ChunkerSettings{
			ChunkSize: s.getInt(keyChunkSize, d.Chunker.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, d.Chunker.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:              s.getInt(keyTopK, d.Retrieval.TopK),
			HistoryWindow:     s.getInt(keyHistoryWindow, d.Retrieval.HistoryWindow),
			GenerationTimeout: s.getDuration(keyGenerationTimeout, d.Retrieval.GenerationTimeout),
			PreviewLength:     s.getInt(keyPreviewLength, d.Retrieval.PreviewLength),
		},
		Storage: domain.StorageSettings{
			Backend:          s.getBackend(d.Storage.Backend),
			DataDir:          s.configStore.GetString(keyStorageDataDir),
			SaveOnWrite:      s.getBool(keySaveOnWrite, d.Storage.SaveOnWrite),
			AutosaveSchedule: s.configStore.GetString(keyAutosave),
		},
	}

	// The local embedder has no model choice; keep its dimension unless set.
	if settings.Embedding.Provider == domain.AIProviderLocal && settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = d.Embedding.Dimensions
	}
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save validates settings and writes them in one update.
// An empty API key, or one equal to the provider's environment variable,
// removes the stored key.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.check(settings); err != nil {
		return err
	}

	values := map[string]any{
		keyEmbedProvider:     settings.Embedding.Provider.String(),
		keyEmbedModel:        settings.Embedding.Model,
		keyEmbedBaseURL:      settings.Embedding.BaseURL,
		keyEmbedDimensions:   settings.Embedding.Dimensions,
		keyEmbedBatchSize:    settings.Embedding.BatchSize,
		keyEmbedAPIKey:       s.storedAPIKey(settings.Embedding.Provider, settings.Embedding.APIKey),
		keyLLMProvider:       settings.LLM.Provider.String(),
		keyLLMModel:          settings.LLM.Model,
		keyLLMBaseURL:        settings.LLM.BaseURL,
		keyLLMAPIKey:         s.storedAPIKey(settings.LLM.Provider, settings.LLM.APIKey),
		keyLLMTemperature:    settings.LLM.Temperature,
		keyLLMMaxTokens:      settings.LLM.MaxTokens,
		keyLLMTopP:           settings.LLM.TopP,
		keyChunkSize:         settings.Chunker.ChunkSize,
		keyChunkOverlap:      settings.Chunker.Overlap,
		keyTopK:              settings.Retrieval.TopK,
		keyHistoryWindow:     settings.Retrieval.HistoryWindow,
		keyGenerationTimeout: settings.Retrieval.GenerationTimeout.String(),
		keyPreviewLength:     settings.Retrieval.PreviewLength,
		keyStorageBackend:    string(settings.Storage.Backend),
		keyStorageDataDir:    settings.Storage.DataDir,
		keySaveOnWrite:       settings.Storage.SaveOnWrite,
		keyAutosave:          settings.Storage.AutosaveSchedule,
	}
	if err := s.configStore.SetMany(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// storedAPIKey returns the key to write to the config file, or nil to remove
// it. Keys that come from the provider's environment variable are not copied
// into the file.
func (s *SettingsService) storedAPIKey(provider domain.AIProvider, key string) any {
	if key == "" || key == s.envAPIKey(provider) {
		return nil
	}
	return key
}

// Set updates a single setting by its dotted key.
// The value is parsed for the key's type and the resulting settings are
// validated before anything is written.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	typed, err := applySetting(settings, key, strings.TrimSpace(value))
	if err != nil {
		return err
	}
	if err := s.check(settings); err != nil {
		return err
	}
	return s.configStore.Set(key, typed)
}

// SetEmbeddingProvider configures the embedding provider.
// Changing the provider changes the vector dimension; an existing index
// built with another dimension will be rejected on load.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsEmbedding() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = defaultBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	settings.Embedding.Dimensions = 0
	if provider == domain.AIProviderLocal {
		settings.Embedding.Dimensions = domain.DefaultLocalDimensions
	} else if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsLLM() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = defaultBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.check(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// check runs struct validation and the cross-field rules tags cannot express.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider %q", domain.ErrConfiguration, settings.Embedding.Provider)
	}
	if settings.Embedding.Provider == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic does not support embeddings", domain.ErrConfiguration)
	}
	if settings.LLM.Provider != "" && !settings.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider %q", domain.ErrConfiguration, settings.LLM.Provider)
	}
	if spec := settings.Storage.AutosaveSchedule; spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, keyAutosave, err)
		}
	}
	return nil
}

// describeFieldError renders a validation failure with the config key name.
func describeFieldError(fe validator.FieldError) string {
	// AppSettings.Chunker.Overlap -> chunker.overlap
	path := strings.TrimPrefix(fe.Namespace(), "AppSettings.")
	key := strings.ToLower(path)
	if k, ok := fieldKeys[path]; ok {
		key = k
	}
	switch fe.Tag() {
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", key, fieldKeys[strings.Split(path, ".")[0]+"."+fe.Param()])
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s must satisfy %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

var fieldKeys = map[string]string{
	"Embedding.Dimensions":        keyEmbedDimensions,
	"Embedding.BatchSize":         keyEmbedBatchSize,
	"LLM.Temperature":             keyLLMTemperature,
	"LLM.MaxTokens":               keyLLMMaxTokens,
	"LLM.TopP":                    keyLLMTopP,
	"Chunker.ChunkSize":           keyChunkSize,
	"Chunker.Overlap":             keyChunkOverlap,
	"Retrieval.TopK":              keyTopK,
	"Retrieval.HistoryWindow":     keyHistoryWindow,
	"Retrieval.GenerationTimeout": keyGenerationTimeout,
	"Retrieval.PreviewLength":     keyPreviewLength,
	"Storage.Backend":             keyStorageBackend,
}

// applySetting parses value for key, applies it to settings and returns the
// typed value to persist.
//
//nolint:gocyclo // One case per settable key.
func applySetting(settings *domain.AppSettings, key, value string) (any, error) {
	switch key {
	case keyEmbedProvider:
		p := domain.AIProvider(value)
		settings.Embedding.Provider = p
		return value, nil
	case keyEmbedModel:
		settings.Embedding.Model = value
		return value, nil
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = value
		return value, nil
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = value
		return value, nil
	case keyEmbedDimensions:
		return parseInt(key, value, &settings.Embedding.Dimensions)
	case keyEmbedBatchSize:
		return parseInt(key, value, &settings.Embedding.BatchSize)
	case keyLLMProvider:
		settings.LLM.Provider = domain.AIProvider(value)
		return value, nil
	case keyLLMModel:
		settings.LLM.Model = value
		return value, nil
	case keyLLMBaseURL:
		settings.LLM.BaseURL = value
		return value, nil
	case keyLLMAPIKey:
		settings.LLM.APIKey = value
		return value, nil
	case keyLLMTemperature:
		return parseFloat(key, value, &settings.LLM.Temperature)
	case keyLLMMaxTokens:
		return parseInt(key, value, &settings.LLM.MaxTokens)
	case keyLLMTopP:
		return parseFloat(key, value, &settings.LLM.TopP)
	case keyChunkSize:
		return parseInt(key, value, &settings.Chunker.ChunkSize)
	case keyChunkOverlap:
		return parseInt(key, value, &settings.Chunker.Overlap)
	case keyTopK:
		return parseInt(key, value, &settings.Retrieval.TopK)
	case keyHistoryWindow:
		return parseInt(key, value, &settings.Retrieval.HistoryWindow)
	case keyPreviewLength:
		return parseInt(key, value, &settings.Retrieval.PreviewLength)
	case keyGenerationTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		settings.Retrieval.GenerationTimeout = d
		return d.String(), nil
	case keyStorageBackend:
		settings.Storage.Backend = domain.StorageBackend(value)
		return value, nil
	case keyStorageDataDir:
		settings.Storage.DataDir = value
		return value, nil
	case keySaveOnWrite:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: expected true or false", domain.ErrInvalidInput, key)
		}
		settings.Storage.SaveOnWrite = b
		return b, nil
	case keyAutosave:
		settings.Storage.AutosaveSchedule = value
		return value, nil
	default:
		return nil, fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := []string{
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedDimensions, keyEmbedBatchSize,
		keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey, keyLLMTemperature, keyLLMMaxTokens, keyLLMTopP,
		keyChunkSize, keyChunkOverlap,
		keyTopK, keyHistoryWindow, keyGenerationTimeout, keyPreviewLength,
		keyStorageBackend, keyStorageDataDir, keySaveOnWrite, keyAutosave,
	}
	slices.Sort(keys)
	return keys
}

func parseInt(key, value string, dst *int) (any, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: expected an integer", domain.ErrInvalidInput, key)
	}
	*dst = n
	return n, nil
}

func parseFloat(key, value string, dst *float64) (any, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: expected a number", domain.ErrInvalidInput, key)
	}
	*dst = f
	return f, nil
}

// defaultBaseURL keeps a custom URL for local providers and clears it for cloud ones.
func defaultBaseURL(provider domain.AIProvider, current string) string {
	switch provider {
	case domain.AIProviderOllama:
		if current == "" {
			return "http://localhost:11434"
		}
		return current
	default:
		return ""
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	name, ok := apiKeyEnv[provider]
	if !ok {
		return ""
	}
	return s.getenv(name)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(keyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
