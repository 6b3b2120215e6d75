package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var currentKey = []byte("current")

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// Store persists index snapshots in BadgerDB.
type Store struct {
	db  *badger.DB
	dir string
}

type snapshotMeta struct {
	Dimension int       `json:"dimension"`
	SavedAt   time.Time `json:"saved_at"`
}

type documentRecord struct {
	ID          string    `json:"id"`
	SourceLabel string    `json:"source_label"`
	ChunkIDs    []int64   `json:"chunk_ids"`
	CreatedAt   time.Time `json:"created_at"`
	Deleted     bool      `json:"deleted"`
}

type chunkRecord struct {
	ID              int64  `json:"id"`
	DocumentID      string `json:"document_id"`
	SourceLabel     string `json:"source_label"`
	Content         string `json:"content"`
	SequenceIndex   int    `json:"sequence_index"`
	TotalInDocument int    `json:"total_in_document"`
	Embedding       []byte `json:"embedding"`
	Deleted         bool   `json:"deleted"`
}

// NewStore opens (or creates) a Badger database in dataDir.
// If dataDir is empty, defaults to ~/.ragcore/data/badger.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragcore", "data", "badger")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &Store{db: db, dir: dataDir}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the database directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the snapshot under a new generation and makes it current.
func (s *Store) Save(ctx context.Context, snap *domain.IndexSnapshot) error {
	current, hasCurrent, err := s.currentGeneration()
	if err != nil {
		return err
	}
	next := current + 1
	prefix := generationPrefix(next)

	// Leftovers from an interrupted save.
	if err := s.db.DropPrefix(prefix); err != nil {
		return fmt.Errorf("clearing generation %d: %w", next, err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	meta, err := json.Marshal(snapshotMeta{Dimension: snap.Dimension, SavedAt: snap.SavedAt})
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := wb.Set(metaKey(next), meta); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	for i, d := range snap.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(documentRecord{
			ID:          d.ID,
			SourceLabel: d.SourceLabel,
			ChunkIDs:    d.ChunkIDs,
			CreatedAt:   d.CreatedAt,
			Deleted:     d.Deleted,
		})
		if err != nil {
			return fmt.Errorf("encoding document %s: %w", d.ID, err)
		}
		if err := wb.Set(documentKey(next, i), data); err != nil {
			return fmt.Errorf("writing document %s: %w", d.ID, err)
		}
	}

	for _, c := range snap.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(chunkRecord{
			ID:              c.ID,
			DocumentID:      c.DocumentID,
			SourceLabel:     c.SourceLabel,
			Content:         c.Content,
			SequenceIndex:   c.SequenceIndex,
			TotalInDocument: c.TotalInDocument,
			Embedding:       vector.Encode(c.Embedding),
			Deleted:         c.Deleted,
		})
		if err != nil {
			return fmt.Errorf("encoding chunk %d: %w", c.ID, err)
		}
		if err := wb.Set(chunkKey(next, c.ID), data); err != nil {
			return fmt.Errorf("writing chunk %d: %w", c.ID, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(currentKey, []byte(strconv.FormatUint(next, 10)))
	})
	if err != nil {
		return fmt.Errorf("switching generation: %w", err)
	}

	if hasCurrent {
		if err := s.db.DropPrefix(generationPrefix(current)); err != nil {
			return fmt.Errorf("dropping generation %d: %w", current, err)
		}
	}
	return nil
}

// Load reads the current snapshot.
// Returns domain.ErrNotFound if nothing has been saved yet.
func (s *Store) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	gen, ok, err := s.currentGeneration()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}

	snap := &domain.IndexSnapshot{}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(gen))
		if err != nil {
			return fmt.Errorf("%w: missing metadata for generation %d", domain.ErrIndexCorruption, gen)
		}
		var meta snapshotMeta
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("%w: metadata: %v", domain.ErrIndexCorruption, err)
		}
		snap.Dimension = meta.Dimension
		snap.SavedAt = meta.SavedAt

		if err := scan(ctx, txn, documentPrefix(gen), func(val []byte) error {
			var rec documentRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			snap.Documents = append(snap.Documents, domain.DocumentRecord{
				ID:          rec.ID,
				SourceLabel: rec.SourceLabel,
				ChunkIDs:    rec.ChunkIDs,
				CreatedAt:   rec.CreatedAt,
				Deleted:     rec.Deleted,
			})
			return nil
		}); err != nil {
			return err
		}

		return scan(ctx, txn, chunkPrefix(gen), func(val []byte) error {
			var rec chunkRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			embedding, err := vector.Decode(rec.Embedding)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", rec.ID, err)
			}
			snap.Chunks = append(snap.Chunks, domain.Chunk{
				ID:              rec.ID,
				DocumentID:      rec.DocumentID,
				SourceLabel:     rec.SourceLabel,
				Content:         rec.Content,
				SequenceIndex:   rec.SequenceIndex,
				TotalInDocument: rec.TotalInDocument,
				Embedding:       embedding,
				Deleted:         rec.Deleted,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) currentGeneration() (uint64, bool, error) {
	var gen uint64
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(currentKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.ParseUint(string(val), 10, 64)
			if err != nil {
				return fmt.Errorf("%w: invalid generation %q", domain.ErrIndexCorruption, val)
			}
			gen, found = n, true
			return nil
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("reading current generation: %w", err)
	}
	return gen, found, nil
}

// scan iterates keys under prefix in key order.
func scan(ctx context.Context, txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := it.Item()
		if err := item.Value(fn); err != nil {
			return fmt.Errorf("%w: key %s: %v", domain.ErrIndexCorruption, item.Key(), err)
		}
	}
	return nil
}

func generationPrefix(gen uint64) []byte {
	return []byte(fmt.Sprintf("g%020d:", gen))
}

func metaKey(gen uint64) []byte {
	return []byte(fmt.Sprintf("g%020d:meta", gen))
}

func documentPrefix(gen uint64) []byte {
	return []byte(fmt.Sprintf("g%020d:doc:", gen))
}

func documentKey(gen uint64, position int) []byte {
	return []byte(fmt.Sprintf("g%020d:doc:%020d", gen, position))
}

func chunkPrefix(gen uint64) []byte {
	return []byte(fmt.Sprintf("g%020d:chunk:", gen))
}

func chunkKey(gen uint64, id int64) []byte {
	return []byte(fmt.Sprintf("g%020d:chunk:%020d", gen, id))
}
