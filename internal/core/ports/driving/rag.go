package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// RAGService answers questions over an ingested document corpus.
type RAGService interface {
	// Ingest splits, embeds and stores text under a new document id.
	// The document is stored entirely or not at all.
	Ingest(ctx context.Context, sourceLabel, text string) (string, error)

	// IngestDocument extracts text from raw bytes and ingests it.
	// Returns domain.ErrUnsupportedFormat for unknown MIME types.
	IngestDocument(ctx context.Context, raw *domain.RawDocument) (string, error)

	// Query answers a question. It never fails: degraded outcomes are
	// signalled by zero confidence and explanatory text.
	Query(ctx context.Context, question string, history []domain.HistoryEntry) domain.Answer

	// QueryWithK is Query with an explicit retrieval depth.
	// k <= 0 uses the configured top-k.
	QueryWithK(ctx context.Context, question string, history []domain.HistoryEntry, k int) domain.Answer

	// Retrieve returns the ranked context for a question without generating.
	Retrieve(ctx context.Context, question string, k int) (*domain.RetrievalContext, error)

	// Delete soft-deletes a document. Repeating it is a no-op.
	// Returns domain.ErrNotFound for unknown ids.
	Delete(ctx context.Context, documentID string) error

	// Stats summarises the index.
	Stats(ctx context.Context) domain.Stats

	// Documents lists live documents in ingestion order.
	Documents(ctx context.Context) ([]domain.DocumentSummary, error)

	// SaveIndex persists the current index when a snapshot store is configured.
	SaveIndex(ctx context.Context) error
}
