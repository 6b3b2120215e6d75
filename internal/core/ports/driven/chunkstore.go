package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// ChunkStore holds chunks with their embeddings and answers similarity queries.
//
// Inserts and soft-deletes are serialised; searches may run concurrently and
// never observe a partially inserted document.
type ChunkStore interface {
	// InsertDocument stores all chunks of a document atomically and returns
	// the new document id. Chunk ids are assigned contiguously.
	// Returns domain.ErrDimensionMismatch if any embedding has the wrong size.
	InsertDocument(ctx context.Context, sourceLabel string, chunks []domain.ChunkInput) (string, error)

	// Search returns at most k hits sorted by descending score, ties by
	// ascending chunk id. Deleted chunks are excluded before the k cap.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)

	// Chunk returns a copy of the chunk with the given id.
	Chunk(ctx context.Context, id int64) (*domain.Chunk, error)

	// Document returns a copy of the document record.
	Document(ctx context.Context, id string) (*domain.DocumentRecord, error)

	// ListDocuments returns live documents in insertion order.
	ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error)

	// SoftDeleteDocument marks every chunk of the document deleted.
	// Idempotent; returns domain.ErrNotFound for unknown ids.
	SoftDeleteDocument(ctx context.Context, id string) error

	// IsEmpty reports whether no chunk was ever inserted.
	IsEmpty(ctx context.Context) bool

	// TotalChunkCount includes soft-deleted chunks.
	TotalChunkCount(ctx context.Context) int

	// Stats summarises the store.
	Stats(ctx context.Context) domain.Stats

	// Dimension returns the embedding dimension.
	Dimension() int

	// Snapshot returns a consistent copy of the full state.
	Snapshot(ctx context.Context) (*domain.IndexSnapshot, error)

	// Restore replaces the state with a validated snapshot.
	// Returns domain.ErrIndexCorruption if the snapshot is inconsistent.
	Restore(ctx context.Context, snapshot *domain.IndexSnapshot) error
}

// SnapshotStore persists index snapshots.
type SnapshotStore interface {
	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snapshot *domain.IndexSnapshot) error

	// Load returns the persisted snapshot.
	// Returns domain.ErrNotFound if nothing has been saved yet.
	Load(ctx context.Context) (*domain.IndexSnapshot, error)

	// Close releases resources.
	Close() error
}
