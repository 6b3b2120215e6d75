package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// mockEmbeddingService returns fixed vectors keyed by text.
type mockEmbeddingService struct {
	dims     int
	vectors  map[string][]float32
	err      error
	batchErr error
	calls    [][]string
	mu       sync.Mutex
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, texts)
	m.mu.Unlock()
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return append([]float32(nil), v...)
	}
	v := make([]float32, m.dims)
	v[0] = 1
	return v
}

func (m *mockEmbeddingService) Dimensions() int              { return m.dims }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService records the prompts it receives.
type mockLLMService struct {
	response   string
	err        error
	block      bool
	systemSeen string
	userSeen   string
	calls      int
}

func (m *mockLLMService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.systemSeen = systemPrompt
	m.userSeen = userPrompt
	if m.block {
		<-ctx.Done()
		return "", domain.NewGenerationError(domain.GenerationOther, "Mock", ctx.Err())
	}
	return m.response, m.err
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

// mockSnapshotStore keeps the last saved snapshot in memory.
type mockSnapshotStore struct {
	mu      sync.Mutex
	saved   *domain.IndexSnapshot
	saves   int
	saveErr error
	loadErr error
}

func (m *mockSnapshotStore) Save(_ context.Context, snap *domain.IndexSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = snap
	return nil
}

func (m *mockSnapshotStore) Load(_ context.Context) (*domain.IndexSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.saved == nil {
		return nil, domain.ErrNotFound
	}
	return m.saved, nil
}

func (m *mockSnapshotStore) Close() error { return nil }

// mockExtractorRegistry handles text/plain and nothing else.
type mockExtractorRegistry struct {
	title string
}

func (m *mockExtractorRegistry) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error) {
	if raw.MIMEType != "text/plain" {
		return nil, domain.ErrUnsupportedFormat
	}
	return &domain.ExtractResult{Text: string(raw.Content), Title: m.title}, nil
}

func (m *mockExtractorRegistry) Register(_ driven.TextExtractor) {}

func (m *mockExtractorRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

var errBoom = errors.New("boom")
