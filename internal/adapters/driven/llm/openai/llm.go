// Package openai generates answers through the OpenAI chat completions API
// or any server that speaks it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/llm"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-3.5-turbo"
	DefaultLLMTimeout = 120 * time.Second

	providerName = "OpenAI"
)

// LLMConfig configures an LLMService.
type LLMConfig struct {
	// APIKey is required.
	APIKey string

	// BaseURL can point at Azure OpenAI or another compatible server.
	BaseURL string

	Model string

	// Timeout bounds the transport. The caller's context usually expires first.
	Timeout time.Duration

	Options driven.GenerateOptions

	// RequestsPerSecond throttles requests. Zero leaves only the quota
	// headers in charge.
	RequestsPerSecond float64
}

// LLMService asks for a single chat completion per call.
type LLMService struct {
	client *httpapi.Client
	model  string
	opts   driven.GenerateOptions
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
	TopP        float64             `json:"top_p"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatCompletionMsg `json:"message"`
		FinishReason string            `json:"finish_reason"`
	} `json:"choices"`
}

func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Headers:           ratelimit.OpenAIHeaders,
	})
	return &LLMService{
		client: httpapi.New(cfg.BaseURL, cfg.Timeout,
			httpapi.WithBearerToken(cfg.APIKey),
			httpapi.WithLimiter(limiter)),
		model: cfg.Model,
		opts:  llm.WithDefaults(cfg.Options),
	}, nil
}

func (s *LLMService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := chatCompletionRequest{
		Model: s.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		TopP:        s.opts.TopP,
	}

	var resp chatCompletionResponse
	if err := s.client.Post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", domain.NewGenerationError(llm.KindForError(err), providerName, err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewGenerationError(domain.GenerationOther, providerName, errors.New("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, "/models"); err != nil {
		return fmt.Errorf("%w: openai: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

func (s *LLMService) Close() error {
	return nil
}
