package mcp

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer    domain.Answer
	stats     domain.Stats
	documents []domain.DocumentSummary
	id        string
	err       error

	question string
	history  []domain.HistoryEntry
	k        int
	deleted  []string
	ingested map[string]string
}

func (m *mockRAGService) Ingest(_ context.Context, label, text string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.ingested == nil {
		m.ingested = map[string]string{}
	}
	m.ingested[label] = text
	return m.id, nil
}

func (m *mockRAGService) IngestDocument(_ context.Context, _ *domain.RawDocument) (string, error) {
	return m.id, m.err
}

func (m *mockRAGService) Query(ctx context.Context, q string, h []domain.HistoryEntry) domain.Answer {
	return m.QueryWithK(ctx, q, h, 0)
}

func (m *mockRAGService) QueryWithK(_ context.Context, q string, h []domain.HistoryEntry, k int) domain.Answer {
	m.question, m.history, m.k = q, h, k
	return m.answer
}

func (m *mockRAGService) Retrieve(_ context.Context, _ string, _ int) (*domain.RetrievalContext, error) {
	return &domain.RetrievalContext{}, m.err
}

func (m *mockRAGService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRAGService) Stats(_ context.Context) domain.Stats {
	return m.stats
}

func (m *mockRAGService) Documents(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockRAGService) SaveIndex(_ context.Context) error {
	return m.err
}
