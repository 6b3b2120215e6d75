package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// testSnapshot builds a two-document snapshot; the second document is deleted.
func testSnapshot() *domain.IndexSnapshot {
	created := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	return &domain.IndexSnapshot{
		Dimension: 3,
		SavedAt:   created.Add(time.Hour),
		Chunks: []domain.Chunk{
			{ID: 0, DocumentID: "doc-a", SourceLabel: "a.txt", Content: "alpha one", SequenceIndex: 0, TotalInDocument: 2, Embedding: []float32{1, 0, 0}},
			{ID: 1, DocumentID: "doc-a", SourceLabel: "a.txt", Content: "alpha two", SequenceIndex: 1, TotalInDocument: 2, Embedding: []float32{0, 1, 0}},
			{ID: 2, DocumentID: "doc-b", SourceLabel: "b.md", Content: "beta", SequenceIndex: 0, TotalInDocument: 1, Embedding: []float32{0, 0, -0.5}, Deleted: true},
		},
		Documents: []domain.DocumentRecord{
			{ID: "doc-a", SourceLabel: "a.txt", ChunkIDs: []int64{0, 1}, CreatedAt: created},
			{ID: "doc-b", SourceLabel: "b.md", ChunkIDs: []int64{2}, CreatedAt: created.Add(time.Minute), Deleted: true},
		},
	}
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "create data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "index.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Contains(t, store.Path(), filepath.Join(".ragcore", "data", "index.db"))
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "path", "to", "db")

	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"documents", "chunks", "index_meta"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_Close(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

func TestStore_Load_NothingSaved(t *testing.T) {
	store := setupTestStore(t)

	snap, err := store.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, snap)
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	want := testSnapshot()

	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, want.Dimension, got.Dimension)
	assert.True(t, want.SavedAt.Equal(got.SavedAt))
	assert.Equal(t, want.Chunks, got.Chunks)
	require.Len(t, got.Documents, 2)
	for i := range want.Documents {
		assert.Equal(t, want.Documents[i].ID, got.Documents[i].ID)
		assert.Equal(t, want.Documents[i].SourceLabel, got.Documents[i].SourceLabel)
		assert.Equal(t, want.Documents[i].ChunkIDs, got.Documents[i].ChunkIDs)
		assert.Equal(t, want.Documents[i].Deleted, got.Documents[i].Deleted)
		assert.True(t, want.Documents[i].CreatedAt.Equal(got.Documents[i].CreatedAt))
	}
	assert.NoError(t, got.Validate(3))
}

func TestStore_Save_ReplacesPreviousSnapshot(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))

	smaller := &domain.IndexSnapshot{
		Dimension: 3,
		SavedAt:   time.Now(),
		Chunks: []domain.Chunk{
			{ID: 0, DocumentID: "doc-c", SourceLabel: "c", Content: "gamma", TotalInDocument: 1, Embedding: []float32{0.5, 0.5, 0}},
		},
		Documents: []domain.DocumentRecord{
			{ID: "doc-c", SourceLabel: "c", ChunkIDs: []int64{0}, CreatedAt: time.Now()},
		},
	}
	require.NoError(t, store.Save(ctx, smaller))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Chunks, 1)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "doc-c", got.Documents[0].ID)
	assert.Equal(t, []int64{0}, got.Documents[0].ChunkIDs)
}

func TestStore_Save_EmptySnapshot(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.IndexSnapshot{Dimension: 8, SavedAt: time.Now()}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Dimension)
	assert.Empty(t, got.Chunks)
	assert.Empty(t, got.Documents)
}

func TestStore_Save_CancelledContext(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Save(ctx, testSnapshot()))
}

func TestStore_Load_TruncatedEmbedding(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testSnapshot()))

	_, err := store.db.Exec("UPDATE chunks SET embedding = x'010203' WHERE id = 1")
	require.NoError(t, err)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)
}

func TestStore_Load_InvalidDimension(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testSnapshot()))

	_, err := store.db.Exec("UPDATE index_meta SET value = 'three' WHERE key = 'dimension'")
	require.NoError(t, err)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql":    {Data: []byte("SELECT 1")},
		"002_second.up.sql":   {Data: []byte("SELECT 1")},
		"002_second.down.sql": {Data: []byte("SELECT 1")},
		"001_initial.up.sql":  {Data: []byte("SELECT 1")},
		"notes.txt":           {Data: []byte("ignored")},
	}

	all, err := pendingMigrations(fsys, 0)
	require.NoError(t, err)
	var versions []int
	for _, m := range all {
		versions = append(versions, m.version)
	}
	assert.Equal(t, []int{1, 2, 10}, versions)

	rest, err := pendingMigrations(fsys, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "010_later.up.sql", rest[0].name)
}

func TestPendingMigrations_BadName(t *testing.T) {
	for _, name := range []string{"initial.up.sql", "v1_initial.up.sql"} {
		_, err := pendingMigrations(fstest.MapFS{name: {Data: []byte("SELECT 1")}}, 0)
		assert.Error(t, err, name)
	}
}

func TestMigrate_FailedScriptIsNotRecorded(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.migrate(ctx, fstest.MapFS{
		"002_broken.up.sql": {Data: []byte("CREATE TABLE extra (id INTEGER); NOT SQL")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002_broken.up.sql")

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}
