package domain

import (
	"fmt"
	"time"
)

// IndexSnapshot is the persisted form of the chunk index.
type IndexSnapshot struct {
	// Dimension is the embedding dimension the index was built with.
	Dimension int

	// Chunks are ordered by slot id.
	Chunks []Chunk

	// Documents are ordered by insertion.
	Documents []DocumentRecord

	// SavedAt is when the snapshot was taken.
	SavedAt time.Time
}

// Validate checks the snapshot against the configured embedding dimension.
// Any inconsistency is reported as ErrIndexCorruption.
func (s *IndexSnapshot) Validate(dimension int) error {
	if s.Dimension != dimension {
		return fmt.Errorf("%w: %w: snapshot has %d, embedder has %d",
			ErrIndexCorruption, ErrDimensionMismatch, s.Dimension, dimension)
	}

	for i, c := range s.Chunks {
		if c.ID != int64(i) {
			return fmt.Errorf("%w: chunk at position %d has id %d", ErrIndexCorruption, i, c.ID)
		}
		if len(c.Embedding) != dimension {
			return fmt.Errorf("%w: %w: chunk %d has %d components",
				ErrIndexCorruption, ErrDimensionMismatch, c.ID, len(c.Embedding))
		}
	}

	owners := make(map[int64]string, len(s.Chunks))
	seen := make(map[string]bool, len(s.Documents))
	for _, d := range s.Documents {
		if d.ID == "" {
			return fmt.Errorf("%w: document with empty id", ErrIndexCorruption)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: duplicate document %s", ErrIndexCorruption, d.ID)
		}
		seen[d.ID] = true
		for _, id := range d.ChunkIDs {
			if id < 0 || id >= int64(len(s.Chunks)) {
				return fmt.Errorf("%w: document %s references missing chunk %d", ErrIndexCorruption, d.ID, id)
			}
			c := s.Chunks[id]
			if c.DocumentID != d.ID {
				return fmt.Errorf("%w: chunk %d does not belong to document %s", ErrIndexCorruption, id, d.ID)
			}
			if _, dup := owners[id]; dup {
				return fmt.Errorf("%w: document %s lists chunk %d twice", ErrIndexCorruption, d.ID, id)
			}
			// Deletion is per document, so every chunk carries its document's flag.
			if c.Deleted != d.Deleted {
				return fmt.Errorf("%w: chunk %d deleted=%t but document %s deleted=%t",
					ErrIndexCorruption, id, c.Deleted, d.ID, d.Deleted)
			}
			owners[id] = d.ID
		}
	}

	for _, c := range s.Chunks {
		if _, ok := owners[c.ID]; !ok {
			return fmt.Errorf("%w: chunk %d has no document", ErrIndexCorruption, c.ID)
		}
	}
	return nil
}
