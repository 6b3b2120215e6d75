package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// RetrievalPipeline turns a question into a ranked context with citations.
type RetrievalPipeline struct {
	embedder      driven.EmbeddingService
	store         driven.ChunkStore
	previewLength int
}

// RetrievalOption configures a RetrievalPipeline.
type RetrievalOption func(*RetrievalPipeline)

// WithPreviewLength sets the citation preview length in characters.
func WithPreviewLength(n int) RetrievalOption {
	return func(p *RetrievalPipeline) {
		if n > 0 {
			p.previewLength = n
		}
	}
}

// NewRetrievalPipeline creates a pipeline over the given embedder and store.
func NewRetrievalPipeline(
	embedder driven.EmbeddingService,
	store driven.ChunkStore,
	opts ...RetrievalOption,
) *RetrievalPipeline {
	p := &RetrievalPipeline{
		embedder:      embedder,
		store:         store,
		previewLength: domain.DefaultPreviewLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Retrieve embeds the question, searches the store and keeps at most k live chunks.
// k <= 0 uses the default of 5.
func (p *RetrievalPipeline) Retrieve(ctx context.Context, question string, k int) (*domain.RetrievalContext, error) {
	if p.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if k <= 0 {
		k = domain.DefaultTopK
	}

	logger.Section("Retrieval")
	logger.Debug("Question: %q, k=%d", question, k)

	vec, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if err := checkDimension(vec, p.store.Dimension()); err != nil {
		return nil, err
	}
	normalize(vec)

	hits, err := p.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Index returned %d hits", len(hits))

	rc := &domain.RetrievalContext{
		Results:     make([]domain.RetrievedChunk, 0, len(hits)),
		Citations:   make([]domain.Citation, 0, len(hits)),
		RawHitCount: len(hits),
	}

	var total float64
	for _, hit := range hits {
		// A delete may have landed between the search and this read.
		chunk, err := p.store.Chunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("read chunk %d: %w", hit.ChunkID, err)
		}
		if chunk.Deleted {
			logger.Debug("Dropping deleted chunk %d", hit.ChunkID)
			continue
		}
		if len(rc.Results) == k {
			break
		}

		rc.Results = append(rc.Results, domain.RetrievedChunk{Chunk: *chunk, Score: hit.Score})
		rc.Citations = append(rc.Citations, domain.Citation{
			DocumentID:         chunk.DocumentID,
			SourceLabel:        chunk.SourceLabel,
			ChunkID:            chunk.ID,
			ChunkSequenceIndex: chunk.SequenceIndex,
			TotalInDocument:    chunk.TotalInDocument,
			Score:              hit.Score,
			ContentPreview:     preview(chunk.Content, p.previewLength),
		})
		total += hit.Score
	}

	if n := len(rc.Results); n > 0 {
		rc.Confidence = total / float64(n)
	}
	logger.Debug("Kept %d chunks, confidence %.4f", len(rc.Results), rc.Confidence)

	return rc, nil
}

// preview returns the first n runes of s, with "..." appended when truncated.
func preview(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
