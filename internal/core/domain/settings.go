package domain

import "time"

// AIProvider names a service that embeds text, generates answers, or both.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderGemini    AIProvider = "gemini"
	// AIProviderLocal is the built-in offline hashing embedder.
	AIProviderLocal AIProvider = "local"
)

type providerInfo struct {
	name        string
	description string
	needsKey    bool
	embedModel  string // empty when the provider cannot embed
	llmModel    string // empty when the provider cannot generate
}

// providerOrder is the order providers are offered in menus.
var providerOrder = []AIProvider{AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini}

var providers = map[AIProvider]providerInfo{
	AIProviderLocal: {
		name: "Local", description: "Local hashing (offline)",
		embedModel: "hashing-v1",
	},
	AIProviderOllama: {
		name: "Ollama", description: "Ollama (local)",
		embedModel: "nomic-embed-text", llmModel: "llama3.2",
	},
	AIProviderOpenAI: {
		name: "OpenAI", description: "OpenAI (cloud)", needsKey: true,
		embedModel: "text-embedding-3-small", llmModel: "gpt-3.5-turbo",
	},
	AIProviderAnthropic: {
		name: "Anthropic", description: "Anthropic (cloud)", needsKey: true,
		llmModel: "claude-3-5-sonnet-latest",
	},
	AIProviderGemini: {
		name: "Gemini", description: "Gemini (cloud)", needsKey: true,
		embedModel: "text-embedding-004", llmModel: "gemini-2.0-flash",
	},
}

func (p AIProvider) info() (providerInfo, bool) {
	info, ok := providers[p]
	return info, ok
}

func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

func (p AIProvider) RequiresAPIKey() bool {
	info, _ := p.info()
	return info.needsKey
}

// IsLocal reports whether the provider runs on this machine.
func (p AIProvider) IsLocal() bool {
	return p.IsValid() && !p.RequiresAPIKey()
}

// SupportsEmbedding reports whether the provider can produce embeddings.
func (p AIProvider) SupportsEmbedding() bool {
	info, _ := p.info()
	return info.embedModel != ""
}

// SupportsLLM reports whether the provider can generate answers.
func (p AIProvider) SupportsLLM() bool {
	info, _ := p.info()
	return info.llmModel != ""
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the menu label, e.g. "OpenAI (cloud)".
func (p AIProvider) Description() string {
	if info, ok := p.info(); ok {
		return info.description
	}
	return unknownProvider
}

// DisplayName is the short name used in messages, e.g. "OpenAI".
func (p AIProvider) DisplayName() string {
	if info, ok := p.info(); ok {
		return info.name
	}
	return unknownProvider
}

const unknownProvider = "Unknown"

// EmbeddingSettings selects and tunes the embedder. Model and BaseURL may be
// empty to use the provider's defaults.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// Dimensions of zero means the model's native size.
	Dimensions int `validate:"gte=0"`

	// BatchSize is how many chunks go into one embedding request.
	BatchSize int `validate:"gt=0,lte=2048"`
}

// IsConfigured reports whether an embedder can be built from the settings.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbedding() && (e.APIKey != "" || !e.Provider.RequiresAPIKey())
}

// LLMSettings selects the answer generator and its sampling parameters.
// An empty Provider leaves generation off.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	Temperature float64 `validate:"gte=0,lte=2"`
	MaxTokens   int     `validate:"gt=0"`
	TopP        float64 `validate:"gt=0,lte=1"`
}

// IsConfigured reports whether a generator can be built from the settings.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.SupportsLLM() && (l.APIKey != "" || !l.Provider.RequiresAPIKey())
}

// ChunkerSettings holds splitting parameters, measured in characters.
type ChunkerSettings struct {
	ChunkSize int `validate:"gt=0"`
	Overlap   int `validate:"gte=0,ltfield=ChunkSize"`
}

// RetrievalSettings holds query-time parameters.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int `validate:"gte=1,lte=50"`

	// HistoryWindow is the number of recent conversation turns sent to the LLM.
	HistoryWindow int `validate:"gte=0,lte=50"`

	// GenerationTimeout bounds a single completion call.
	GenerationTimeout time.Duration `validate:"gt=0"`

	// PreviewLength is the citation preview length in characters.
	PreviewLength int `validate:"gt=0"`
}

// StorageBackend identifies where index snapshots are persisted.
type StorageBackend string

const (
	// StorageMemory never persists; the index is lost on exit.
	StorageMemory StorageBackend = "memory"
	StorageSQLite StorageBackend = "sqlite"
	StorageBadger StorageBackend = "badger"
)

func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageMemory, StorageSQLite, StorageBadger:
		return true
	default:
		return false
	}
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Backend selects the snapshot store.
	Backend StorageBackend `validate:"oneof=memory sqlite badger"`

	// DataDir is where snapshot files live. Empty means the config directory.
	DataDir string

	// SaveOnWrite persists after every ingest and delete.
	SaveOnWrite bool

	// AutosaveSchedule is a cron spec for periodic saves in long-running modes.
	// Empty disables autosave.
	AutosaveSchedule string
}

// AppSettings is everything `ragcore settings` can change.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunker   ChunkerSettings
	Retrieval RetrievalSettings
	Storage   StorageSettings
}

// Defaults used when a setting is absent from configuration.
const (
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 200
	DefaultTopK              = 5
	MaxTopK                  = 50
	DefaultHistoryWindow     = 4
	DefaultPreviewLength     = 200
	DefaultGenerationTimeout = 60 * time.Second
	DefaultEmbeddingBatch    = 32
	DefaultTemperature       = 0.1
	DefaultMaxTokens         = 800
	DefaultTopP              = 0.9
	DefaultLocalDimensions   = 512
)

// DefaultAppSettings is the configuration of a fresh install: the offline
// local embedder, no LLM (answers carry citations only) and a SQLite index
// saved after every change.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Dimensions: DefaultLocalDimensions,
			BatchSize:  DefaultEmbeddingBatch,
		},
		LLM: LLMSettings{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
			TopP:        DefaultTopP,
		},
		Chunker: ChunkerSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:              DefaultTopK,
			HistoryWindow:     DefaultHistoryWindow,
			GenerationTimeout: DefaultGenerationTimeout,
			PreviewLength:     DefaultPreviewLength,
		},
		Storage: StorageSettings{
			Backend:     StorageSQLite,
			SaveOnWrite: true,
		},
	}
}

// AllEmbeddingProviders lists the providers that can embed, in menu order.
func AllEmbeddingProviders() []AIProvider {
	return filterProviders(AIProvider.SupportsEmbedding)
}

// AllLLMProviders lists the providers that can generate, in menu order.
func AllLLMProviders() []AIProvider {
	return filterProviders(AIProvider.SupportsLLM)
}

func filterProviders(keep func(AIProvider) bool) []AIProvider {
	var out []AIProvider
	for _, p := range providerOrder {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// DefaultEmbeddingModels maps each embedding provider to the model used when
// none is configured.
func DefaultEmbeddingModels() map[AIProvider]string {
	models := make(map[AIProvider]string)
	for p, info := range providers {
		if info.embedModel != "" {
			models[p] = info.embedModel
		}
	}
	return models
}

// DefaultLLMModels maps each LLM provider to the model used when none is
// configured.
func DefaultLLMModels() map[AIProvider]string {
	models := make(map[AIProvider]string)
	for p, info := range providers {
		if info.llmModel != "" {
			models[p] = info.llmModel
		}
	}
	return models
}

// EmbeddingDimensions returns the native vector size of known embedding
// models. Settings fall back to it when no dimension is configured.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-v1":             DefaultLocalDimensions,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		"text-embedding-004":     768,
	}
}
