package domain

// SearchHit is a single similarity match returned by the index.
type SearchHit struct {
	// ChunkID is the slot id of the matched chunk.
	ChunkID int64

	// Score is the inner product of the query and chunk embeddings.
	// With unit vectors this is cosine similarity in [-1, 1].
	Score float64
}

// Citation references a chunk that contributed to an answer.
type Citation struct {
	DocumentID         string  `json:"document_id"`
	SourceLabel        string  `json:"source"`
	ChunkID            int64   `json:"chunk_id"`
	ChunkSequenceIndex int     `json:"chunk_index"`
	TotalInDocument    int     `json:"total_chunks"`
	Score              float64 `json:"score"`
	ContentPreview     string  `json:"preview"`
}

// RetrievedChunk is a surviving search hit with its chunk re-read from the index.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalContext is the ranked, filtered outcome of a retrieval.
type RetrievalContext struct {
	// Results are the surviving chunks in descending score order, at most k.
	Results []RetrievedChunk

	// Citations mirror Results one to one.
	Citations []Citation

	// Confidence is the mean score of Results, or 0 when there are none.
	Confidence float64

	// RawHitCount is the number of hits the index returned before the
	// deleted-chunk filter ran.
	RawHitCount int
}

// IsEmpty reports whether no chunk survived retrieval.
func (r *RetrievalContext) IsEmpty() bool {
	return r == nil || len(r.Results) == 0
}

// HistoryEntry is one prior turn of a conversation.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the final response to a question.
type Answer struct {
	Text       string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Confidence float64    `json:"confidence"`
}

// Stats summarises the index.
type Stats struct {
	// DocumentCount is the number of live (not deleted) documents.
	DocumentCount int `json:"total_documents"`

	// DeletedDocumentCount is the number of soft-deleted documents.
	DeletedDocumentCount int `json:"deleted_documents"`

	// ChunkCount includes soft-deleted chunks.
	ChunkCount int `json:"total_chunks"`

	// LogicalChunkCount excludes soft-deleted chunks.
	LogicalChunkCount int `json:"logical_chunks"`

	// AverageChunksPerDocument is LogicalChunkCount / DocumentCount.
	AverageChunksPerDocument float64 `json:"average_chunks_per_document"`

	// Dimension is the embedding dimension of the index.
	Dimension int `json:"dimension"`
}
