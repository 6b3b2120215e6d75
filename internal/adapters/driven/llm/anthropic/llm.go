// Package anthropic generates answers with Claude through the official SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/llm"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	providerName = "Anthropic"
)

type Config struct {
	APIKey string
	// BaseURL replaces https://api.anthropic.com.
	BaseURL string
	Model   string
	Timeout time.Duration
	Options driven.GenerateOptions
}

type LLMService struct {
	client  anthropic.Client
	limiter *ratelimit.Limiter
	model   string
	opts    driven.GenerateOptions
}

func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic: API key is required", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	s := &LLMService{
		limiter: ratelimit.New(ratelimit.Config{Headers: ratelimit.AnthropicHeaders}),
		model:   cfg.Model,
		opts:    llm.WithDefaults(cfg.Options),
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		// Retrying here would run past the composer's deadline.
		option.WithMaxRetries(0),
		option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			resp, err := next(req)
			if err == nil {
				s.limiter.UpdateFromResponse(resp)
			}
			return resp, err
		}),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	s.client = anthropic.NewClient(reqOpts...)
	return s, nil
}

func (s *LLMService) params(system, user string) anthropic.MessageNewParams {
	p := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   int64(s.opts.MaxTokens),
		Temperature: anthropic.Float(s.opts.Temperature),
		TopP:        anthropic.Float(s.opts.TopP),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		p.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return p
}

// Complete returns the concatenated text blocks of Claude's reply.
func (s *LLMService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", domain.NewGenerationError(domain.GenerationOther, providerName, err)
	}

	msg, err := s.client.Messages.New(ctx, s.params(systemPrompt, userPrompt))
	if err != nil {
		kind := domain.GenerationOther
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			kind = llm.KindForStatus(apiErr.StatusCode)
		}
		return "", domain.NewGenerationError(kind, providerName, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", domain.NewGenerationError(domain.GenerationOther, providerName,
			fmt.Errorf("reply has no text (stop reason %q)", msg.StopReason))
	}
	return b.String(), nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("%w: anthropic: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

func (s *LLMService) Close() error { return nil }
