package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// fakeIndex records calls and keeps live documents in memory.
type fakeIndex struct {
	mu        sync.Mutex
	next      int
	live      map[string]domain.DocumentSummary
	ingested  []*domain.RawDocument
	deleted   []string
	ingestErr error
	deleteErr error
}

func newFakeIndex(existing ...domain.DocumentSummary) *fakeIndex {
	f := &fakeIndex{live: make(map[string]domain.DocumentSummary)}
	for _, d := range existing {
		f.live[d.ID] = d
	}
	return f
}

func (f *fakeIndex) IngestDocument(_ context.Context, raw *domain.RawDocument) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ingestErr != nil {
		return "", f.ingestErr
	}
	f.next++
	id := fmt.Sprintf("doc-%d", f.next)
	f.live[id] = domain.DocumentSummary{ID: id, SourceLabel: raw.Label, CreatedAt: time.Now()}
	f.ingested = append(f.ingested, raw)
	return id, nil
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	if _, ok := f.live[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.live, id)
	return nil
}

func (f *fakeIndex) Documents(_ context.Context) ([]domain.DocumentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := make([]domain.DocumentSummary, 0, len(f.live))
	for _, d := range f.live {
		docs = append(docs, d)
	}
	return docs, nil
}

func TestNewSyncer_AdoptsExistingDocuments(t *testing.T) {
	root := t.TempDir()
	index := newFakeIndex(domain.DocumentSummary{ID: "old", SourceLabel: "notes/a.md"})

	s, err := NewSyncer(context.Background(), index, root)
	require.NoError(t, err)

	id, ok := s.DocumentID(filepath.Join(root, "notes", "a.md"))
	assert.True(t, ok)
	assert.Equal(t, "old", id)
	assert.Equal(t, "notes/a.md", s.Label(filepath.Join(root, "notes", "a.md")))
}

func TestSyncer_Apply(t *testing.T) {
	t.Run("ingests new file with relative label", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "guide.md")
		writeFile(t, path, "# Guide\nHello.")
		index := newFakeIndex()
		s, err := NewSyncer(context.Background(), index, root)
		require.NoError(t, err)

		res := s.Apply(context.Background(), Change{Type: ChangeUpserted, Path: path})

		require.NoError(t, res.Err)
		assert.Equal(t, "doc-1", res.DocumentID)
		require.Len(t, index.ingested, 1)
		assert.Equal(t, "guide.md", index.ingested[0].Label)
		assert.Equal(t, "text/markdown", index.ingested[0].MIMEType)
		assert.Equal(t, "# Guide\nHello.", string(index.ingested[0].Content))
		assert.Empty(t, index.deleted)
	})

	t.Run("replaces previous version", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "guide.md")
		writeFile(t, path, "v1")
		index := newFakeIndex()
		s, err := NewSyncer(context.Background(), index, root)
		require.NoError(t, err)
		first := s.Apply(context.Background(), Change{Type: ChangeUpserted, Path: path})
		require.NoError(t, first.Err)

		writeFile(t, path, "v2")
		second := s.Apply(context.Background(), Change{Type: ChangeUpserted, Path: path})

		require.NoError(t, second.Err)
		assert.Equal(t, []string{first.DocumentID}, index.deleted)
		id, ok := s.DocumentID(path)
		assert.True(t, ok)
		assert.Equal(t, second.DocumentID, id)
		docs, _ := index.Documents(context.Background())
		assert.Len(t, docs, 1)
	})

	t.Run("removes document for deleted file", func(t *testing.T) {
		root := t.TempDir()
		index := newFakeIndex(domain.DocumentSummary{ID: "old", SourceLabel: "gone.txt"})
		s, err := NewSyncer(context.Background(), index, root)
		require.NoError(t, err)

		res := s.Apply(context.Background(), Change{Type: ChangeRemoved, Path: filepath.Join(root, "gone.txt")})

		require.NoError(t, res.Err)
		assert.Empty(t, res.DocumentID)
		assert.Equal(t, []string{"old"}, index.deleted)
		_, ok := s.DocumentID(filepath.Join(root, "gone.txt"))
		assert.False(t, ok)
	})

	t.Run("removing unknown file is a no-op", func(t *testing.T) {
		index := newFakeIndex()
		s, err := NewSyncer(context.Background(), index, t.TempDir())
		require.NoError(t, err)

		res := s.Apply(context.Background(), Change{Type: ChangeRemoved, Path: "/nowhere/x.txt"})

		assert.NoError(t, res.Err)
		assert.Empty(t, index.deleted)
	})

	t.Run("tolerates already deleted document", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "a.txt")
		writeFile(t, path, "text")
		index := newFakeIndex(domain.DocumentSummary{ID: "old", SourceLabel: "a.txt"})
		s, err := NewSyncer(context.Background(), index, root)
		require.NoError(t, err)
		require.NoError(t, index.Delete(context.Background(), "old"))

		res := s.Apply(context.Background(), Change{Type: ChangeUpserted, Path: path})

		assert.NoError(t, res.Err)
		assert.NotEmpty(t, res.DocumentID)
	})

	t.Run("delete failure keeps previous document", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "a.txt")
		writeFile(t, path, "text")
		index := newFakeIndex(domain.DocumentSummary{ID: "old", SourceLabel: "a.txt"})
		index.deleteErr = errors.New("disk full")
		s, err := NewSyncer(context.Background(), index, root)
		require.NoError(t, err)

		res := s.Apply(context.Background(), Change{Type: ChangeUpserted, Path: path})

		assert.ErrorContains(t, res.Err, "disk full")
		assert.Empty(t, index.ingested)
		id, _ := s.DocumentID(path)
		assert.Equal(t, "old", id)
	})

	t.Run("ingest failure", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "a.txt")
		writeFile(t, path, "text")
		index := newFakeIndex()
		index.ingestErr = domain.ErrUnsupportedFormat
		s, err := NewSyncer(context.Background(), index, root)
		require.NoError(t, err)

		res := s.Apply(context.Background(), Change{Type: ChangeUpserted, Path: path})

		assert.ErrorIs(t, res.Err, domain.ErrUnsupportedFormat)
		_, ok := s.DocumentID(path)
		assert.False(t, ok)
	})

	t.Run("unreadable file", func(t *testing.T) {
		root := t.TempDir()
		s, err := NewSyncer(context.Background(), newFakeIndex(), root)
		require.NoError(t, err)

		res := s.Apply(context.Background(), Change{Type: ChangeUpserted, Path: filepath.Join(root, "missing.txt")})

		assert.ErrorIs(t, res.Err, os.ErrNotExist)
	})
}

func TestSyncer_Scan(t *testing.T) {
	root := t.TempDir()
	fresh := filepath.Join(root, "fresh.txt")
	stale := filepath.Join(root, "stale.txt")
	added := filepath.Join(root, "added.txt")
	for _, p := range []string{fresh, stale, added} {
		writeFile(t, p, "content of "+filepath.Base(p))
	}
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(fresh, past, past))

	index := newFakeIndex(
		domain.DocumentSummary{ID: "fresh-doc", SourceLabel: "fresh.txt", CreatedAt: time.Now()},
		domain.DocumentSummary{ID: "stale-doc", SourceLabel: "stale.txt", CreatedAt: past.Add(-time.Hour)},
	)
	s, err := NewSyncer(context.Background(), index, root)
	require.NoError(t, err)

	results := s.Scan(context.Background(), []string{fresh, stale, added})

	require.Len(t, results, 3)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, "fresh-doc", results[0].DocumentID)
	assert.False(t, results[1].Skipped)
	assert.NoError(t, results[1].Err)
	assert.False(t, results[2].Skipped)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, []string{"stale-doc"}, index.deleted)
	assert.Len(t, index.ingested, 2)
}

func TestSyncer_Run(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFile(t, path, "text")
	index := newFakeIndex()
	s, err := NewSyncer(context.Background(), index, root)
	require.NoError(t, err)

	changes := make(chan Change, 2)
	changes <- Change{Type: ChangeUpserted, Path: path}
	changes <- Change{Type: ChangeRemoved, Path: path}
	close(changes)

	var reported []Result
	err = s.Run(context.Background(), changes, func(r Result) { reported = append(reported, r) })

	require.NoError(t, err)
	require.Len(t, reported, 2)
	assert.Equal(t, ChangeUpserted, reported[0].Change.Type)
	assert.Equal(t, ChangeRemoved, reported[1].Change.Type)
	docs, _ := index.Documents(context.Background())
	assert.Empty(t, docs)
}

func TestSyncer_RunStopsOnCancel(t *testing.T) {
	s, err := NewSyncer(context.Background(), newFakeIndex(), t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Run(ctx, make(chan Change), nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchAndSync(t *testing.T) {
	root := t.TempDir()
	index := newFakeIndex()
	s, err := NewSyncer(context.Background(), index, root)
	require.NoError(t, err)
	changes := startWatch(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, changes, nil) //nolint:errcheck // cancelled below
	}()

	path := filepath.Join(root, "live.md")
	writeFile(t, path, "# Live")

	assert.Eventually(t, func() bool {
		docs, _ := index.Documents(context.Background())
		return len(docs) == 1 && docs[0].SourceLabel == "live.md"
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))

	assert.Eventually(t, func() bool {
		docs, _ := index.Documents(context.Background())
		return len(docs) == 0
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
