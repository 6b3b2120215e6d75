// Package openai embeds text through the OpenAI embeddings API or any server
// that speaks it.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerSecond keeps bulk ingestion under typical tier limits.
	DefaultRequestsPerSecond = 5

	fallbackDimensions = 1536
)

var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures an EmbeddingService.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL can point at Azure OpenAI or another compatible server.
	BaseURL string

	Model   string
	Timeout time.Duration

	// Dimensions shortens text-embedding-3 vectors. Other models ignore it
	// and use their native size.
	Dimensions int

	// RequestsPerSecond defaults to DefaultRequestsPerSecond. Negative
	// disables the throttle.
	RequestsPerSecond float64
}

// EmbeddingService sends each batch as one /embeddings request.
type EmbeddingService struct {
	client     *httpapi.Client
	model      string
	dimensions int
	// shorten reports whether the model accepts a dimensions parameter.
	shorten bool
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = modelDimensions[cfg.Model]
	}
	if dims == 0 {
		dims = fallbackDimensions
	}

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Headers:           ratelimit.OpenAIHeaders,
	})
	return &EmbeddingService{
		client: httpapi.New(cfg.BaseURL, cfg.Timeout,
			httpapi.WithBearerToken(cfg.APIKey),
			httpapi.WithLimiter(limiter)),
		model:      cfg.Model,
		dimensions: dims,
		shorten:    strings.HasPrefix(cfg.Model, "text-embedding-3-"),
	}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns vectors in input order. The API tags each vector with
// its input index and does not promise to keep the order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := embeddingRequest{Model: s.model, Input: texts}
	if s.shorten {
		req.Dimensions = s.dimensions
	}

	var resp embeddingResponse
	if err := s.client.Post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: openai: %w", domain.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs",
			domain.ErrEmbedding, len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("%w: openai returned invalid index %d", domain.ErrEmbedding, d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.client.Get(ctx, "/models"); err != nil {
		return fmt.Errorf("%w: openai: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

func (s *EmbeddingService) Close() error {
	return nil
}
