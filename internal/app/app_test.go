package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/services"
)

func TestNew_DefaultsPersistAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := New(ctx, dir)
	require.NoError(t, err)
	assert.Contains(t, first.Warnings[0], "no LLM configured")

	id, err := first.RAG.Ingest(ctx, "notes.txt", "The quarterly report is due on Friday.")
	require.NoError(t, err)
	first.Close(ctx)

	assert.FileExists(t, filepath.Join(dir, "data", "index.db"))

	second, err := New(ctx, dir)
	require.NoError(t, err)
	defer second.Close(ctx)

	docs, err := second.RAG.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)

	answer := second.RAG.Query(ctx, "When is the quarterly report due?", nil)
	require.NotEmpty(t, answer.Citations)
	assert.Equal(t, "notes.txt", answer.Citations[0].SourceLabel)
	assert.Equal(t, 0.0, answer.Confidence, "no LLM means the generation failure answer")
}

func TestNew_BadgerBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	settingsApp, err := NewSettingsOnly(dir)
	require.NoError(t, err)
	require.NoError(t, settingsApp.Settings.Set("storage.backend", "badger"))

	a, err := New(ctx, dir)
	require.NoError(t, err)
	_, err = a.RAG.Ingest(ctx, "doc", "badger persisted text")
	require.NoError(t, err)
	a.Close(ctx)

	b, err := New(ctx, dir)
	require.NoError(t, err)
	defer b.Close(ctx)
	assert.Equal(t, 1, b.RAG.Stats(ctx).DocumentCount)
}

func TestNew_MemoryBackendDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	settingsApp, err := NewSettingsOnly(dir)
	require.NoError(t, err)
	require.NoError(t, settingsApp.Settings.Set("storage.backend", "memory"))

	a, err := New(ctx, dir)
	require.NoError(t, err)
	_, err = a.RAG.Ingest(ctx, "doc", "ephemeral text")
	require.NoError(t, err)
	a.Close(ctx)

	b, err := New(ctx, dir)
	require.NoError(t, err)
	defer b.Close(ctx)
	assert.Zero(t, b.RAG.Stats(ctx).DocumentCount)
}

func TestNew_DimensionChangeIsReportedAndIndexIgnored(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := New(ctx, dir)
	require.NoError(t, err)
	_, err = a.RAG.Ingest(ctx, "doc", "text indexed at 512 dimensions")
	require.NoError(t, err)
	a.Close(ctx)

	require.NoError(t, a.Settings.Set("embedding.dimensions", "128"))

	b, err := New(ctx, dir)
	require.NoError(t, err)
	defer b.Close(ctx)
	assert.Zero(t, b.RAG.Stats(ctx).ChunkCount)
	require.NotEmpty(t, b.Warnings)
	assert.Contains(t, b.Warnings[len(b.Warnings)-1], "saved index could not be loaded")
}

func TestNew_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[chunker]\nchunk_size = 100\noverlap = 100\n"), 0o600))

	_, err := New(context.Background(), dir)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

type countingSaver struct {
	saves atomic.Int32
}

func (c *countingSaver) SaveIndex(_ context.Context) error {
	c.saves.Add(1)
	return nil
}

func TestAutosaver(t *testing.T) {
	saver := &countingSaver{}
	a := NewAutosaver(saver)

	require.NoError(t, a.Start("@every 1s"))
	assert.Eventually(t, func() bool { return saver.saves.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	a.Stop()
}

func TestAutosaver_InvalidSpec(t *testing.T) {
	a := NewAutosaver(&countingSaver{})

	assert.Error(t, a.Start("not a schedule"))
}

var _ IndexSaver = (*services.RAGService)(nil)
