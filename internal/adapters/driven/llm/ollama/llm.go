// Package ollama generates answers with a model served by Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/llm"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second

	providerName = "Ollama"
)

// LLMConfig configures an LLMService. Zero fields take the defaults above
// and llm.DefaultOptions.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Options driven.GenerateOptions
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	client *httpapi.Client
	model  string
	opts   driven.GenerateOptions
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	TopP        float64 `json:"top_p"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		client: httpapi.New(cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
		opts:   llm.WithDefaults(cfg.Options),
	}
}

func (s *LLMService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Options: chatOptions{
			Temperature: s.opts.Temperature,
			NumPredict:  s.opts.MaxTokens,
			TopP:        s.opts.TopP,
		},
	}

	var resp chatResponse
	if err := s.client.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", domain.NewGenerationError(llm.KindForError(err), providerName, err)
	}
	// Ollama reports some failures, such as running out of memory, with a 200.
	if resp.Error != "" {
		return "", domain.NewGenerationError(domain.GenerationOther, providerName, errors.New(resp.Error))
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks that the server answers /api/tags. It does not load the model.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, "/api/tags"); err != nil {
		return fmt.Errorf("%w: ollama: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

func (s *LLMService) Close() error {
	return nil
}
