// Package gemini provides an LLM service adapter using the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/llm"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is the default Gemini chat model.
const DefaultModel = "gemini-2.0-flash"

const providerName = "Gemini"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// Model is the chat model to use (default: gemini-2.0-flash).
	Model string

	// Options are the sampling parameters (default: 0.1 / 800 / 0.9).
	Options driven.GenerateOptions
}

// LLMService generates answers with Gemini.
type LLMService struct {
	client *genai.Client
	model  string
	opts   driven.GenerateOptions
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: API key is required", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: initialising client: %w", domain.ErrConfiguration, err)
	}

	return &LLMService{
		client: client,
		model:  cfg.Model,
		opts:   llm.WithDefaults(cfg.Options),
	}, nil
}

// Complete generates a reply to userPrompt with systemPrompt as the system instruction.
func (s *LLMService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(s.opts.Temperature)),
		TopP:            genai.Ptr(float32(s.opts.TopP)),
		MaxOutputTokens: int32(s.opts.MaxTokens),
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", s.classify(err)
	}

	// Use the first candidate that carries text
	var text strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					text.WriteString(part.Text)
				}
			}
			if text.Len() > 0 {
				break
			}
		}
	}
	if text.Len() == 0 {
		return "", s.fail(domain.GenerationOther, errors.New("no response generated"))
	}
	return text.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping fetches the configured model's metadata.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, nil); err != nil {
		return fmt.Errorf("%w: gemini: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return s.fail(llm.KindForStatus(apiErr.Code), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return s.fail(llm.KindForStatus(apiErrPtr.Code), err)
	}
	return s.fail(domain.GenerationOther, err)
}

func (s *LLMService) fail(kind domain.GenerationErrorKind, err error) error {
	return domain.NewGenerationError(kind, providerName, err)
}
