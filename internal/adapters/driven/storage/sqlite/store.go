package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

const dbFileName = "index.db"

// index_meta keys.
const (
	metaDimension = "dimension"
	metaSavedAt   = "saved_at"
)

var _ driven.SnapshotStore = (*Store)(nil)

// Store keeps the latest index snapshot in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) index.db under dataDir and brings its schema
// up to date. An empty dataDir means ~/.ragcore/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragcore", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", path+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

type migration struct {
	version int
	name    string
}

// pendingMigrations lists the *.up.sql files in fsys newer than applied,
// oldest first. File names start with their version: 001_initial.up.sql.
func pendingMigrations(fsys fs.FS, applied int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version %q", name, prefix)
		}
		if version > applied {
			out = append(out, migration{version: version, name: name})
		}
	}
	slices.SortFunc(out, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return out, nil
}

// migrate applies every pending migration. Each runs in its own transaction
// together with the schema_migrations row that records it.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return err
	}

	var applied int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&applied); err != nil {
		return err
	}

	pending, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}
	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return err
		}
		if err := s.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(script)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version)
			return err
		}); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Save replaces whatever snapshot is stored with snap. Readers see either
// the old snapshot or the new one.
func (s *Store) Save(ctx context.Context, snap *domain.IndexSnapshot) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"chunks", "documents", "index_meta"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := insertDocuments(ctx, tx, snap.Documents); err != nil {
			return err
		}
		if err := insertChunks(ctx, tx, snap.Chunks); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO index_meta (key, value) VALUES (?, ?), (?, ?)",
			metaDimension, strconv.Itoa(snap.Dimension),
			metaSavedAt, snap.SavedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("write index_meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func insertDocuments(ctx context.Context, tx *sql.Tx, docs []domain.DocumentRecord) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO documents (id, position, source_label, created_at, deleted) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, d := range docs {
		created := d.CreatedAt.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, d.ID, pos, d.SourceLabel, created, d.Deleted); err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
	}
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, chunks []domain.Chunk) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(id, document_id, source_label, content, sequence_index, total_in_document, embedding, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.SourceLabel, c.Content,
			c.SequenceIndex, c.TotalInDocument, vector.Encode(c.Embedding), c.Deleted); err != nil {
			return fmt.Errorf("chunk %d: %w", c.ID, err)
		}
	}
	return nil
}

// Load returns the stored snapshot, or domain.ErrNotFound before the first
// Save. Rows that cannot be decoded are reported as domain.ErrIndexCorruption.
func (s *Store) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	meta, err := s.readMeta(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := meta[metaDimension]
	if !ok {
		return nil, domain.ErrNotFound
	}
	dim, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: dimension %q", domain.ErrIndexCorruption, raw)
	}

	snap := &domain.IndexSnapshot{Dimension: dim}
	snap.SavedAt, _ = time.Parse(time.RFC3339Nano, meta[metaSavedAt])

	if snap.Documents, err = s.readDocuments(ctx); err != nil {
		return nil, err
	}
	if snap.Chunks, err = s.readChunks(ctx); err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(snap.Documents))
	for i, d := range snap.Documents {
		pos[d.ID] = i
	}
	for _, c := range snap.Chunks {
		if i, ok := pos[c.DocumentID]; ok {
			snap.Documents[i].ChunkIDs = append(snap.Documents[i].ChunkIDs, c.ID)
		}
	}
	return snap, nil
}

func (s *Store) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return nil, fmt.Errorf("read index_meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("read index_meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *Store) readDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source_label, created_at, deleted FROM documents ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentRecord
	for rows.Next() {
		var (
			d       domain.DocumentRecord
			created string
		)
		if err := rows.Scan(&d.ID, &d.SourceLabel, &created, &d.Deleted); err != nil {
			return nil, fmt.Errorf("read documents: %w", err)
		}
		if d.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("%w: document %s created_at %q", domain.ErrIndexCorruption, d.ID, created)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) readChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, document_id, source_label, content, sequence_index, total_in_document, embedding, deleted
		FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var (
			c    domain.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.SourceLabel, &c.Content,
			&c.SequenceIndex, &c.TotalInDocument, &blob, &c.Deleted); err != nil {
			return nil, fmt.Errorf("read chunks: %w", err)
		}
		if c.Embedding, err = vector.Decode(blob); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %w", domain.ErrIndexCorruption, c.ID, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
