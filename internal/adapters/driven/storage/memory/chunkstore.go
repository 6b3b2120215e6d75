package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory flat index with exact inner-product search.
// Chunk ids are slot indices into chunks; slots are never reused.
type ChunkStore struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
	documents map[string]*domain.DocumentRecord
	order     []string

	newID func() string
	now   func() time.Time
}

// ChunkStoreOption configures a ChunkStore.
type ChunkStoreOption func(*ChunkStore)

// WithIDGenerator overrides document id generation.
func WithIDGenerator(fn func() string) ChunkStoreOption {
	return func(s *ChunkStore) {
		s.newID = fn
	}
}

// WithClock overrides the clock used for document timestamps.
func WithClock(fn func() time.Time) ChunkStoreOption {
	return func(s *ChunkStore) {
		s.now = fn
	}
}

// NewChunkStore creates an empty store for embeddings of the given dimension.
func NewChunkStore(dimension int, opts ...ChunkStoreOption) (*ChunkStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrConfiguration, dimension)
	}
	s := &ChunkStore{
		dimension: dimension,
		documents: make(map[string]*domain.DocumentRecord),
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dimension returns the embedding dimension.
func (s *ChunkStore) Dimension() int {
	return s.dimension
}

// InsertDocument stores all chunks of a document in one step.
func (s *ChunkStore) InsertDocument(_ context.Context, sourceLabel string, inputs []domain.ChunkInput) (string, error) {
	if len(inputs) == 0 {
		return "", fmt.Errorf("%w: document has no chunks", domain.ErrInvalidInput)
	}
	for i, in := range inputs {
		if len(in.Embedding) != s.dimension {
			return "", fmt.Errorf("%w: chunk %d has %d components, index has %d",
				domain.ErrDimensionMismatch, i, len(in.Embedding), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docID := s.newID()
	for _, exists := s.documents[docID]; exists; _, exists = s.documents[docID] {
		docID = s.newID()
	}

	first := int64(len(s.chunks))
	ids := make([]int64, len(inputs))
	for i, in := range inputs {
		id := first + int64(i)
		ids[i] = id
		s.chunks = append(s.chunks, domain.Chunk{
			ID:              id,
			DocumentID:      docID,
			SourceLabel:     sourceLabel,
			Content:         in.Content,
			SequenceIndex:   i,
			TotalInDocument: len(inputs),
			Embedding:       slices.Clone(in.Embedding),
		})
	}

	s.documents[docID] = &domain.DocumentRecord{
		ID:          docID,
		SourceLabel: sourceLabel,
		ChunkIDs:    ids,
		CreatedAt:   s.now(),
	}
	s.order = append(s.order, docID)

	return docID, nil
}

// Search returns the k live chunks with the highest inner product.
func (s *ChunkStore) Search(_ context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d components, index has %d",
			domain.ErrDimensionMismatch, len(query), s.dimension)
	}
	if k <= 0 {
		return []domain.SearchHit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.SearchHit, 0, len(s.chunks))
	for i := range s.chunks {
		c := &s.chunks[i]
		if c.Deleted {
			continue
		}
		hits = append(hits, domain.SearchHit{ChunkID: c.ID, Score: dot(query, c.Embedding)})
	}

	slices.SortFunc(hits, func(a, b domain.SearchHit) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.ChunkID, b.ChunkID)
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Chunk returns a copy of the chunk with the given id.
func (s *ChunkStore) Chunk(_ context.Context, id int64) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= int64(len(s.chunks)) {
		return nil, fmt.Errorf("chunk %d: %w", id, domain.ErrNotFound)
	}
	c := s.chunks[id]
	c.Embedding = slices.Clone(c.Embedding)
	return &c, nil
}

// Document returns a copy of the document record.
func (s *ChunkStore) Document(_ context.Context, id string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	out := *rec
	out.ChunkIDs = slices.Clone(rec.ChunkIDs)
	return &out, nil
}

// ListDocuments returns live documents in insertion order.
func (s *ChunkStore) ListDocuments(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.DocumentRecord, 0, len(s.order))
	for _, id := range s.order {
		rec := s.documents[id]
		if rec.Deleted {
			continue
		}
		out := *rec
		out.ChunkIDs = slices.Clone(rec.ChunkIDs)
		result = append(result, out)
	}
	return result, nil
}

// SoftDeleteDocument marks every chunk of the document deleted.
func (s *ChunkStore) SoftDeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	for _, cid := range rec.ChunkIDs {
		s.chunks[cid].Deleted = true
	}
	rec.Deleted = true
	return nil
}

// IsEmpty reports whether no chunk was ever inserted.
func (s *ChunkStore) IsEmpty(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) == 0
}

// TotalChunkCount includes soft-deleted chunks.
func (s *ChunkStore) TotalChunkCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Stats summarises the store.
func (s *ChunkStore) Stats(_ context.Context) domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.Stats{
		ChunkCount: len(s.chunks),
		Dimension:  s.dimension,
	}
	for _, c := range s.chunks {
		if !c.Deleted {
			stats.LogicalChunkCount++
		}
	}
	for _, rec := range s.documents {
		if rec.Deleted {
			stats.DeletedDocumentCount++
		} else {
			stats.DocumentCount++
		}
	}
	if stats.DocumentCount > 0 {
		stats.AverageChunksPerDocument = float64(stats.LogicalChunkCount) / float64(stats.DocumentCount)
	}
	return stats
}

// Snapshot returns a deep copy of the full state.
func (s *ChunkStore) Snapshot(_ context.Context) (*domain.IndexSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &domain.IndexSnapshot{
		Dimension: s.dimension,
		Chunks:    make([]domain.Chunk, len(s.chunks)),
		Documents: make([]domain.DocumentRecord, 0, len(s.order)),
		SavedAt:   s.now(),
	}
	for i, c := range s.chunks {
		c.Embedding = slices.Clone(c.Embedding)
		snap.Chunks[i] = c
	}
	for _, id := range s.order {
		rec := *s.documents[id]
		rec.ChunkIDs = slices.Clone(rec.ChunkIDs)
		snap.Documents = append(snap.Documents, rec)
	}
	return snap, nil
}

// Restore validates the snapshot and replaces the current state with it.
func (s *ChunkStore) Restore(_ context.Context, snap *domain.IndexSnapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrIndexCorruption)
	}
	if err := snap.Validate(s.dimension); err != nil {
		return err
	}

	chunks := make([]domain.Chunk, len(snap.Chunks))
	for i, c := range snap.Chunks {
		c.Embedding = slices.Clone(c.Embedding)
		chunks[i] = c
	}
	documents := make(map[string]*domain.DocumentRecord, len(snap.Documents))
	order := make([]string, 0, len(snap.Documents))
	for _, d := range snap.Documents {
		rec := d
		rec.ChunkIDs = slices.Clone(d.ChunkIDs)
		documents[rec.ID] = &rec
		order = append(order, rec.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = chunks
	s.documents = documents
	s.order = order
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
