package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

const (
	// EmptyQuestionAnswer is returned for blank questions.
	EmptyQuestionAnswer = "Please ask a question about your documents."

	queryFailedPrefix = "An error occurred while processing your question: "
)

// RAGService ingests documents and answers questions over them.
type RAGService struct {
	splitter   driven.Splitter
	embedder   driven.EmbeddingService
	store      driven.ChunkStore
	extractors driven.ExtractorRegistry
	snapshots  driven.SnapshotStore

	retrieval *RetrievalPipeline
	composer  *AnswerComposer

	batchSize   int
	topK        int
	saveOnWrite bool

	// saveMu serialises snapshot writes.
	saveMu sync.Mutex
}

// RAGOption configures a RAGService.
type RAGOption func(*ragConfig)

type ragConfig struct {
	extractors  driven.ExtractorRegistry
	snapshots   driven.SnapshotStore
	prompts     driven.PromptStore
	retrieval   domain.RetrievalSettings
	batchSize   int
	saveOnWrite bool
}

// WithExtractorRegistry enables IngestDocument for binary formats.
func WithExtractorRegistry(r driven.ExtractorRegistry) RAGOption {
	return func(c *ragConfig) { c.extractors = r }
}

// WithSnapshotStore enables LoadIndex and SaveIndex.
// When saveOnWrite is set, every ingest and delete persists the index.
func WithSnapshotStore(s driven.SnapshotStore, saveOnWrite bool) RAGOption {
	return func(c *ragConfig) {
		c.snapshots = s
		c.saveOnWrite = saveOnWrite
	}
}

// WithPrompts overrides the built-in answer prompts.
func WithPrompts(p driven.PromptStore) RAGOption {
	return func(c *ragConfig) { c.prompts = p }
}

// WithRetrievalSettings sets top-k, history window, generation timeout and preview length.
func WithRetrievalSettings(s domain.RetrievalSettings) RAGOption {
	return func(c *ragConfig) { c.retrieval = s }
}

// WithEmbeddingBatchSize sets how many chunks go into one embedding request.
func WithEmbeddingBatchSize(n int) RAGOption {
	return func(c *ragConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// NewRAGService wires the pipeline together.
// The embedder may be nil; ingestion and retrieval then fail with
// domain.ErrEmbeddingUnavailable. The llm may be nil; answers then carry
// citations only.
func NewRAGService(
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	store driven.ChunkStore,
	llm driven.LLMService,
	opts ...RAGOption,
) (*RAGService, error) {
	if splitter == nil || store == nil {
		return nil, fmt.Errorf("%w: splitter and chunk store are required", domain.ErrConfiguration)
	}
	if embedder != nil && embedder.Dimensions() > 0 && embedder.Dimensions() != store.Dimension() {
		return nil, fmt.Errorf("%w: %w: embedder %s produces %d dimensions, index has %d",
			domain.ErrConfiguration, domain.ErrDimensionMismatch,
			embedder.ModelName(), embedder.Dimensions(), store.Dimension())
	}

	defaults := domain.DefaultAppSettings()
	cfg := ragConfig{
		retrieval: defaults.Retrieval,
		batchSize: defaults.Embedding.BatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	composerOpts := []ComposerOption{
		WithTimeout(cfg.retrieval.GenerationTimeout),
		WithHistoryWindow(cfg.retrieval.HistoryWindow),
	}
	if cfg.prompts != nil {
		composerOpts = append(composerOpts, WithPromptStore(cfg.prompts))
	}

	return &RAGService{
		splitter:    splitter,
		embedder:    embedder,
		store:       store,
		extractors:  cfg.extractors,
		snapshots:   cfg.snapshots,
		retrieval:   NewRetrievalPipeline(embedder, store, WithPreviewLength(cfg.retrieval.PreviewLength)),
		composer:    NewAnswerComposer(llm, composerOpts...),
		batchSize:   cfg.batchSize,
		topK:        cfg.retrieval.TopK,
		saveOnWrite: cfg.saveOnWrite,
	}, nil
}

// Ingest splits, embeds and stores text under a new document id.
// Text must be valid UTF-8 so stored chunks match it byte for byte.
func (s *RAGService) Ingest(ctx context.Context, sourceLabel, text string) (string, error) {
	sourceLabel = strings.TrimSpace(sourceLabel)
	if sourceLabel == "" {
		return "", fmt.Errorf("%w: source label is required", domain.ErrInvalidInput)
	}
	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: %q is not valid UTF-8 text", domain.ErrInvalidInput, sourceLabel)
	}
	if s.embedder == nil {
		return "", domain.ErrEmbeddingUnavailable
	}

	logger.Section("Ingest")
	start := time.Now()

	segments := s.splitter.Split(text)
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: %q has no text to index", domain.ErrInvalidInput, sourceLabel)
	}
	logger.Debug("Split %q into %d chunks with %s", sourceLabel, len(segments), s.splitter.Name())

	inputs, err := s.embed(ctx, segments)
	if err != nil {
		return "", err
	}

	docID, err := s.store.InsertDocument(ctx, sourceLabel, inputs)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	logger.Info("Ingested %q as %s (%d chunks) in %s",
		sourceLabel, docID, len(inputs), time.Since(start).Round(time.Millisecond))

	s.persist(ctx)
	return docID, nil
}

// embed produces one normalised vector per segment, in batches.
func (s *RAGService) embed(ctx context.Context, segments []string) ([]domain.ChunkInput, error) {
	dim := s.store.Dimension()
	inputs := make([]domain.ChunkInput, 0, len(segments))

	for startIdx := 0; startIdx < len(segments); startIdx += s.batchSize {
		end := min(startIdx+s.batchSize, len(segments))
		batch := segments[startIdx:end]

		vectors, err := s.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(vectors), len(batch))
		}
		logger.Debug("Embedded chunks %d-%d", startIdx, end-1)

		for i, v := range vectors {
			if err := checkDimension(v, dim); err != nil {
				return nil, err
			}
			inputs = append(inputs, domain.ChunkInput{Content: batch[i], Embedding: normalize(v)})
		}
	}
	return inputs, nil
}

// IngestDocument extracts text from raw bytes and ingests it.
// The label defaults to the extracted title, then the file name.
func (s *RAGService) IngestDocument(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	if s.extractors == nil {
		return "", fmt.Errorf("%w: no extractors configured", domain.ErrUnsupportedFormat)
	}

	result, err := s.extractors.Extract(ctx, raw)
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(raw.Label)
	if label == "" {
		label = strings.TrimSpace(result.Title)
	}
	if label == "" && raw.URI != "" {
		label = filepath.Base(raw.URI)
	}
	// Extraction is already lossy; invalid bytes from a converter become U+FFFD.
	return s.Ingest(ctx, label, strings.ToValidUTF8(result.Text, "\uFFFD"))
}

// Query answers a question. Failures become explanatory answers with zero confidence.
func (s *RAGService) Query(ctx context.Context, question string, history []domain.HistoryEntry) domain.Answer {
	return s.QueryWithK(ctx, question, history, s.topK)
}

// QueryWithK answers a question using the k best chunks.
func (s *RAGService) QueryWithK(
	ctx context.Context, question string, history []domain.HistoryEntry, k int,
) domain.Answer {
	if k <= 0 {
		k = s.topK
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{Text: EmptyQuestionAnswer, Citations: []domain.Citation{}}
	}
	if s.store.IsEmpty(ctx) {
		return domain.Answer{Text: NoResultsAnswer, Citations: []domain.Citation{}}
	}

	rc, err := s.Retrieve(ctx, question, k)
	if err != nil {
		logger.Error(err, "Retrieval failed")
		return domain.Answer{Text: queryFailedPrefix + err.Error(), Citations: []domain.Citation{}}
	}

	return s.composer.Compose(ctx, question, rc, history)
}

// Retrieve returns the ranked context without generating an answer.
func (s *RAGService) Retrieve(ctx context.Context, question string, k int) (*domain.RetrievalContext, error) {
	return s.retrieval.Retrieve(ctx, question, k)
}

// Delete soft-deletes a document.
func (s *RAGService) Delete(ctx context.Context, documentID string) error {
	if err := s.store.SoftDeleteDocument(ctx, documentID); err != nil {
		return err
	}
	logger.Info("Deleted document %s", documentID)
	s.persist(ctx)
	return nil
}

// Stats summarises the index.
func (s *RAGService) Stats(ctx context.Context) domain.Stats {
	return s.store.Stats(ctx)
}

// Documents lists live documents in ingestion order.
func (s *RAGService) Documents(ctx context.Context) ([]domain.DocumentSummary, error) {
	records, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.DocumentSummary, len(records))
	for i := range records {
		summaries[i] = records[i].Summary()
	}
	return summaries, nil
}

// LoadIndex restores the persisted index. A missing snapshot leaves the
// store empty; an inconsistent one returns domain.ErrIndexCorruption.
func (s *RAGService) LoadIndex(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	snap, err := s.snapshots.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("No saved index, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	if err := s.store.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restore index: %w", err)
	}
	logger.Debug("Restored %d documents, %d chunks", len(snap.Documents), len(snap.Chunks))
	return nil
}

// SaveIndex persists the current index when a snapshot store is configured.
func (s *RAGService) SaveIndex(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot index: %w", err)
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	logger.Debug("Saved index: %d chunks", len(snap.Chunks))
	return nil
}

// persist saves after a write when configured. The write itself has
// already committed, so a failed save is logged rather than returned.
func (s *RAGService) persist(ctx context.Context) {
	if !s.saveOnWrite {
		return
	}
	if err := s.SaveIndex(ctx); err != nil {
		logger.Error(err, "Index changes are not persisted")
	}
}
