// Package watch keeps the index in step with a directory tree.
// A Watcher turns fsnotify events into debounced per-file changes and a
// Syncer applies them to the RAG service.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragcore/internal/logger"
	"github.com/custodia-labs/ragcore/internal/normalisers"
)

// DefaultDebounce is how long a path must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watch: watcher is closed")

// ChangeType says what happened to a file.
type ChangeType int

const (
	// ChangeUpserted means the file exists and should be (re)indexed.
	ChangeUpserted ChangeType = iota
	// ChangeRemoved means the file is gone.
	ChangeRemoved
)

func (c ChangeType) String() string {
	if c == ChangeRemoved {
		return "removed"
	}
	return "upserted"
}

// Change is a settled change to one file.
type Change struct {
	Type ChangeType
	Path string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPatterns restricts watching to files whose path relative to the root
// matches one of the doublestar patterns (for example "**/*.md").
func WithPatterns(patterns ...string) Option {
	return func(w *Watcher) { w.patterns = append(w.patterns, patterns...) }
}

// WithDebounce sets the quiet period per path.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher reports file changes below a root directory.
// Hidden files and directories are ignored.
type Watcher struct {
	root     string
	patterns []string
	debounce time.Duration

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	closed bool
}

// New creates a watcher for root. Patterns are validated here.
func New(root string, opts ...Option) (*Watcher, error) {
	w := &Watcher{root: filepath.Clean(root), debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	for _, p := range w.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid pattern %q", p)
		}
	}
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Matches reports whether a file path is one the watcher cares about.
func (w *Watcher) Matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") || isHidden(rel) {
		return false
	}
	if len(w.patterns) == 0 {
		return normalisers.DetectMIMEType(path) != ""
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, rel); ok { //nolint:errcheck // patterns validated in New
			return true
		}
	}
	return false
}

// Files lists every matching file below the root in lexical order.
func (w *Watcher) Files() ([]string, error) {
	return w.filesUnder(w.root)
}

func (w *Watcher) filesUnder(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Watch starts watching and returns a channel of settled changes.
// The channel closes when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("watch: root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: root path error: %s is not a directory", w.root)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if err := addTree(fsw, w.root); err != nil {
		fsw.Close() //nolint:errcheck // already failing
		return nil, err
	}
	w.fsw = fsw

	out := make(chan Change)
	go w.loop(ctx, fsw, out)
	logger.Debug("Watching %s", w.root)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Change) {
	defer close(out)

	timers := make(map[string]*time.Timer)
	settled := make(chan string)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			for _, path := range w.handleFsEvent(fsw, ev) {
				if t, exists := timers[path]; exists {
					t.Reset(w.debounce)
					continue
				}
				timers[path] = time.AfterFunc(w.debounce, func() {
					select {
					case settled <- path:
					case <-ctx.Done():
					}
				})
			}

		case path := <-settled:
			delete(timers, path)
			change := Change{Type: ChangeUpserted, Path: path}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				change.Type = ChangeRemoved
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleFsEvent filters an event and returns the file paths to debounce.
// A new directory is added to the watch and its existing files are reported,
// since they may have been written before the watch was in place.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) []string {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return nil
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || isHidden(rel) {
		return nil
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addTree(fsw, ev.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", ev.Name, err)
			}
			files, err := w.filesUnder(ev.Name)
			if err != nil {
				logger.Warn("Cannot scan %s: %v", ev.Name, err)
			}
			return files
		}
	}

	if !w.Matches(ev.Name) {
		return nil
	}
	return []string{ev.Name}
}

// Close stops the watcher. The change channel closes shortly after.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of the path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
