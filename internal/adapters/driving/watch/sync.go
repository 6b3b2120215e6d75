package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/logger"
	"github.com/custodia-labs/ragcore/internal/normalisers"
)

// Indexer is the part of the RAG service the syncer drives.
type Indexer interface {
	IngestDocument(ctx context.Context, raw *domain.RawDocument) (string, error)
	Delete(ctx context.Context, documentID string) error
	Documents(ctx context.Context) ([]domain.DocumentSummary, error)
}

// Result reports how one change was applied.
type Result struct {
	Change     Change
	DocumentID string
	Skipped    bool
	Err        error
}

// Syncer applies file changes to the index. Documents are labelled with
// their slash-separated path relative to the watched root.
type Syncer struct {
	index Indexer
	root  string

	// docs maps a label to the live document indexed from that file.
	docs    map[string]string
	created map[string]domain.DocumentSummary
}

// NewSyncer creates a syncer and adopts already indexed documents whose
// labels are paths under root.
func NewSyncer(ctx context.Context, index Indexer, root string) (*Syncer, error) {
	s := &Syncer{
		index:   index,
		root:    filepath.Clean(root),
		docs:    make(map[string]string),
		created: make(map[string]domain.DocumentSummary),
	}

	existing, err := index.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for _, d := range existing {
		s.docs[d.SourceLabel] = d.ID
		s.created[d.SourceLabel] = d
	}
	return s, nil
}

// Label returns the source label used for a file.
func (s *Syncer) Label(path string) string {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// DocumentID returns the live document indexed from a file, if any.
func (s *Syncer) DocumentID(path string) (string, bool) {
	id, ok := s.docs[s.Label(path)]
	return id, ok
}

// Scan indexes files that are new or modified since their document was created.
func (s *Syncer) Scan(ctx context.Context, files []string) []Result {
	results := make([]Result, 0, len(files))
	for _, path := range files {
		change := Change{Type: ChangeUpserted, Path: path}
		if d, ok := s.created[s.Label(path)]; ok {
			info, err := os.Stat(path)
			if err == nil && !info.ModTime().After(d.CreatedAt) {
				results = append(results, Result{Change: change, DocumentID: d.ID, Skipped: true})
				continue
			}
		}
		results = append(results, s.Apply(ctx, change))
	}
	return results
}

// Apply indexes or removes one file. An upsert deletes the previous
// document for the path before ingesting the new content.
func (s *Syncer) Apply(ctx context.Context, change Change) Result {
	label := s.Label(change.Path)
	res := Result{Change: change}

	if prev, ok := s.docs[label]; ok {
		if err := s.index.Delete(ctx, prev); err != nil && !errors.Is(err, domain.ErrNotFound) {
			res.Err = fmt.Errorf("delete previous version of %s: %w", label, err)
			return res
		}
		delete(s.docs, label)
		delete(s.created, label)
		logger.Debug("Removed %s (%s)", label, prev)
	}

	if change.Type == ChangeRemoved {
		return res
	}

	content, err := os.ReadFile(change.Path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", label, err)
		return res
	}

	id, err := s.index.IngestDocument(ctx, &domain.RawDocument{
		URI:      change.Path,
		Label:    label,
		MIMEType: normalisers.DetectMIMEType(change.Path),
		Content:  content,
	})
	if err != nil {
		res.Err = fmt.Errorf("ingest %s: %w", label, err)
		return res
	}
	s.docs[label] = id
	res.DocumentID = id
	return res
}

// Run applies changes until the channel closes or ctx is cancelled.
// Each result is passed to report, which may be nil.
func (s *Syncer) Run(ctx context.Context, changes <-chan Change, report func(Result)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			res := s.Apply(ctx, change)
			if res.Err != nil {
				logger.Error(res.Err, "Watch update failed")
			}
			if report != nil {
				report(res)
			}
		}
	}
}
