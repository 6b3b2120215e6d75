package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

const promptExt = ".txt"

var defaultPrompts = driven.DefaultPrompts()

// DefaultPrompt returns the built-in text for a prompt name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// PromptStore serves answer prompts from text files in a directory.
//
// The directory and the default files are written on the first Load, never
// overwriting a file the user already has. Missing or blank files fall back
// to the built-in prompt. A file edited while a long-running command is up
// (chat, watch, mcp serve) is picked up on the next Load.
type PromptStore struct {
	dir     string
	install func() error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	text    string
	modTime time.Time
	size    int64
}

// NewPromptStore creates a prompt store rooted at dir.
// If dir is empty, defaults to ~/.ragcore/prompts/.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, "prompts")
	}

	s := &PromptStore{
		dir:   dir,
		cache: make(map[string]cachedPrompt),
	}
	s.install = sync.OnceValue(s.writeDefaults)
	return s, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Path returns the file backing a prompt.
func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.dir, name+promptExt)
}

// Load returns the prompt text for name.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := defaultPrompts[name]

	if err := s.install(); err != nil {
		if known {
			logger.Warn("Prompt directory unavailable, using built-in %s: %v", name, err)
			return def, nil
		}
		return "", fmt.Errorf("prompt directory: %w", err)
	}

	text, err := s.read(name)
	switch {
	case err == nil && text != "":
		return text, nil
	case known:
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Reading prompt %s: %v", name, err)
		}
		return def, nil
	case err == nil:
		return "", fmt.Errorf("%w: prompt %q is empty", domain.ErrConfiguration, name)
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
}

// read returns the trimmed file content, re-reading only when the file changed.
func (s *PromptStore) read(name string) (string, error) {
	path := s.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	c, ok := s.cache[name]
	s.mu.Unlock()
	if ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	s.mu.Lock()
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime(), size: info.Size()}
	s.mu.Unlock()
	return text, nil
}

// Reload drops cached prompts so the next Load reads every file again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

func (s *PromptStore) writeDefaults() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	for name, content := range defaultPrompts {
		if err := writeIfMissing(s.Path(name), content+"\n"); err != nil {
			return fmt.Errorf("create default prompt %q: %w", name, err)
		}
	}
	return writeIfMissing(filepath.Join(s.dir, "README.md"), promptReadme)
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close() //nolint:errcheck // already failing
		return err
	}
	return f.Close()
}

const promptReadme = `# ragcore prompts

These files shape how answers are written. Each question is sent as:

    answer_system.txt      system prompt
    answer_intro.txt       first line of the user prompt
    (recent conversation, numbered [Source i: label] context blocks, the question)
    answer_closing.txt     last line of the user prompt

Edits apply to the next question, including in a running chat session.
Delete a file or empty it to go back to the built-in text.
`
