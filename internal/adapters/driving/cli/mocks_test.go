package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/services"
)

// mockRAGService records calls and serves canned answers.
type mockRAGService struct {
	mu sync.Mutex

	docs      []domain.DocumentSummary
	raw       []*domain.RawDocument
	queries   []string
	lastTopK  int
	answer    domain.Answer
	stats     domain.Stats
	ingestErr error
	deleted   []string
}

func (m *mockRAGService) Ingest(ctx context.Context, sourceLabel, text string) (string, error) {
	return m.IngestDocument(ctx, &domain.RawDocument{Label: sourceLabel, MIMEType: "text/plain", Content: []byte(text)})
}

func (m *mockRAGService) IngestDocument(_ context.Context, raw *domain.RawDocument) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ingestErr != nil {
		return "", m.ingestErr
	}
	if strings.TrimSpace(string(raw.Content)) == "" {
		return "", domain.ErrInvalidInput
	}
	label := raw.Label
	if label == "" {
		label = raw.URI
	}
	id := fmt.Sprintf("doc-%d", len(m.raw)+1)
	m.raw = append(m.raw, raw)
	m.docs = append(m.docs, domain.DocumentSummary{ID: id, SourceLabel: label, ChunkCount: 1, CreatedAt: time.Now()})
	return id, nil
}

func (m *mockRAGService) Query(ctx context.Context, question string, history []domain.HistoryEntry) domain.Answer {
	return m.QueryWithK(ctx, question, history, 0)
}

func (m *mockRAGService) QueryWithK(_ context.Context, question string, _ []domain.HistoryEntry, k int) domain.Answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, question)
	m.lastTopK = k
	return m.answer
}

func (m *mockRAGService) Retrieve(_ context.Context, _ string, _ int) (*domain.RetrievalContext, error) {
	return &domain.RetrievalContext{}, nil
}

func (m *mockRAGService) Delete(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.ID == documentID {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			m.deleted = append(m.deleted, documentID)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockRAGService) Stats(_ context.Context) domain.Stats {
	return m.stats
}

func (m *mockRAGService) Documents(_ context.Context) ([]domain.DocumentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DocumentSummary(nil), m.docs...), nil
}

func (m *mockRAGService) SaveIndex(_ context.Context) error {
	return nil
}

// setupTestServices installs a mock RAG service and file-backed settings in a
// temporary directory, and resets command flags. The returned function
// restores the previous state.
func setupTestServices(t *testing.T) (*mockRAGService, func()) {
	t.Helper()

	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)

	rag := &mockRAGService{}
	oldRAG, oldSettings, oldStdin, oldNoColor := ragService, settingsService, stdin, color.NoColor
	ragService = rag
	settingsService = services.NewSettingsService(store, nil)
	color.NoColor = true
	resetFlags()

	return rag, func() {
		ragService, settingsService, stdin, color.NoColor = oldRAG, oldSettings, oldStdin, oldNoColor
		resetFlags()
	}
}

func resetFlags() {
	ingestLabel, ingestText, ingestGlob, ingestManifest, ingestJSON = "", "", "", "", false
	queryTopK, queryJSON = 0, false
	statsJSON, documentsJSON = false, false
	watchGlobs, watchDebounce = nil, 0
	settingsJSON, versionJSON = false, false
	mcpHTTPAddr = ""
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
