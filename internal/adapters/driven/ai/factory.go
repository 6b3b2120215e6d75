// Package ai turns embedding and LLM settings into live services.
package ai

import (
	"context"
	"fmt"
	"strings"

	geminiembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/gemini"
	localembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragcore/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragcore/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

type embedderFunc func(ctx context.Context, s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error)

type generatorFunc func(ctx context.Context, s *domain.LLMSettings, opts driven.GenerateOptions) (driven.LLMService, error)

var embedders = map[domain.AIProvider]embedderFunc{
	domain.AIProviderLocal: func(_ context.Context, _ *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return localembed.NewEmbeddingService(dims)
	},
	domain.AIProviderOllama: func(_ context.Context, s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims}), nil
	},
	domain.AIProviderOpenAI: func(_ context.Context, s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		})
	},
	domain.AIProviderGemini: func(ctx context.Context, s *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Dimensions: dims,
		})
	},
}

var generators = map[domain.AIProvider]generatorFunc{
	domain.AIProviderOllama: func(_ context.Context, s *domain.LLMSettings, opts driven.GenerateOptions) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model, Options: opts}), nil
	},
	domain.AIProviderOpenAI: func(_ context.Context, s *domain.LLMSettings, opts driven.GenerateOptions) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Options: opts,
		})
	},
	domain.AIProviderAnthropic: func(_ context.Context, s *domain.LLMSettings, opts driven.GenerateOptions) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Options: opts,
		})
	},
	domain.AIProviderGemini: func(ctx context.Context, s *domain.LLMSettings, opts driven.GenerateOptions) (driven.LLMService, error) {
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Options: opts,
		})
	},
}

// Services holds what Initialize built.
type Services struct {
	Embedder driven.EmbeddingService
	// LLM is nil when generation is off or could not be set up.
	LLM driven.LLMService
	// Warnings explain why LLM is nil.
	Warnings []string
}

// Close releases both services.
func (s *Services) Close() {
	if s.Embedder != nil {
		_ = s.Embedder.Close()
	}
	if s.LLM != nil {
		_ = s.LLM.Close()
	}
}

// Initialize builds the embedder, which must succeed, and the LLM, which may
// fail with only a warning so that answers fall back to citations.
func Initialize(ctx context.Context, settings *domain.AppSettings) (*Services, error) {
	embedder, err := CreateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'ragcore settings show' to check the configuration",
			domain.ErrEmbeddingUnavailable, err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	svcs := &Services{Embedder: embedder}
	llm, err := CreateLLMService(ctx, &settings.LLM)
	switch {
	case err != nil:
		svcs.Warnings = append(svcs.Warnings, fmt.Sprintf("LLM disabled: %v", err))
	case llm == nil:
		svcs.Warnings = append(svcs.Warnings, "no LLM configured, answers will list sources only")
	default:
		svcs.LLM = llm
	}
	return svcs, nil
}

// CreateEmbeddingService returns nil, nil when the settings are incomplete.
// Choosing a provider that cannot embed at all is an error.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider.IsValid() && !settings.Provider.SupportsEmbedding() {
		return nil, fmt.Errorf("%s does not support embeddings, use one of %s",
			settings.Provider, joinProviders(domain.AllEmbeddingProviders()))
	}
	build, ok := embedders[settings.Provider]
	if !ok || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := build(ctx, settings, embeddingDimensions(settings))
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateLLMService returns nil, nil when the settings are incomplete.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, nil
	}
	build, ok := generators[settings.Provider]
	if !ok || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := build(ctx, settings, driven.GenerateOptions{
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		TopP:        settings.TopP,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// embeddingDimensions prefers the configured size, then the model's native
// size. Zero lets the adapter pick.
func embeddingDimensions(settings *domain.EmbeddingSettings) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	return domain.EmbeddingDimensions()[settings.Model]
}

func joinProviders(ps []domain.AIProvider) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}
