package domain

import "time"

// Chunk is a segment of an ingested document together with its embedding.
// Chunks are created only by document ingestion and are never physically removed.
type Chunk struct {
	// ID is the monotonic slot index assigned at insertion. Never reused.
	ID int64

	// DocumentID links to the document that produced this chunk.
	DocumentID string

	// SourceLabel is the human label of the document, used in citations.
	SourceLabel string

	// Content is the immutable chunk text.
	Content string

	// SequenceIndex is the position of the chunk within its document.
	SequenceIndex int

	// TotalInDocument is the number of chunks the document produced.
	TotalInDocument int

	// Embedding is the unit-length vector for similarity search.
	Embedding []float32

	// Deleted marks the chunk as soft-deleted. It is the only mutable field.
	Deleted bool
}

// ChunkInput is a chunk awaiting insertion.
type ChunkInput struct {
	Content   string
	Embedding []float32
}

// DocumentRecord maps a document to the ordered ids of its chunks.
type DocumentRecord struct {
	// ID is the document identifier returned by ingestion.
	ID string

	// SourceLabel is the label supplied at ingestion (usually a file name).
	SourceLabel string

	// ChunkIDs are the slot ids of the document's chunks in sequence order.
	ChunkIDs []int64

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// Deleted is true once the document has been soft-deleted.
	Deleted bool
}

// DocumentSummary is the listing view of a live document.
type DocumentSummary struct {
	ID          string    `json:"id"`
	SourceLabel string    `json:"source_label"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary returns the listing view of the record.
func (d *DocumentRecord) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		SourceLabel: d.SourceLabel,
		ChunkCount:  len(d.ChunkIDs),
		CreatedAt:   d.CreatedAt,
	}
}
