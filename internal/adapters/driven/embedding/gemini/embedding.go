// Package gemini embeds text with Google's Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
	DefaultTimeout    = 60 * time.Second

	// maxBatch is the most inputs batchEmbedContents accepts per call.
	maxBatch = 100
)

type Config struct {
	APIKey string
	// BaseURL replaces the public endpoint. Tests point it at httptest.
	BaseURL string
	Model   string
	// Dimensions is sent as outputDimensionality; the model truncates to it.
	Dimensions int
	// Timeout bounds each request, not the whole batch.
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Dimensions <= 0 {
		c.Dimensions = DefaultDimensions
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

type EmbeddingService struct {
	models *genai.Models
	cfg    Config
}

func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: API key is required", domain.ErrConfiguration)
	}
	cfg = cfg.withDefaults()

	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %w", domain.ErrConfiguration, err)
	}
	return &EmbeddingService{models: client.Models, cfg: cfg}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends texts in groups of at most 100 and returns one vector per
// text, in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vecs, err := s.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}
	dim := int32(s.cfg.Dimensions)
	res, err := s.models.EmbedContent(ctx, s.cfg.Model, contents,
		&genai.EmbedContentConfig{OutputDimensionality: &dim})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: gemini: %d %s: %s", domain.ErrEmbedding, apiErr.Code, apiErr.Status, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: gemini: %w", domain.ErrEmbedding, err)
	}

	var got []*genai.ContentEmbedding
	if res != nil {
		got = res.Embeddings
	}
	if len(got) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d inputs", domain.ErrEmbedding, len(got), len(texts))
	}
	vecs := make([][]float32, len(got))
	for i, e := range got {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: gemini returned an empty embedding at %d", domain.ErrEmbedding, i)
		}
		vecs[i] = e.Values
	}
	return vecs, nil
}

func (s *EmbeddingService) Dimensions() int   { return s.cfg.Dimensions }
func (s *EmbeddingService) ModelName() string { return s.cfg.Model }

func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// Close is a no-op; the SDK shares the default HTTP transport.
func (s *EmbeddingService) Close() error { return nil }
