package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/configval"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	configFileName = "config.toml"
	configHeader   = "# ragcore configuration. Edit by hand or with `ragcore settings set`.\n\n"
)

// ConfigStore keeps configuration in config.toml. Dotted keys map to TOML
// tables, so "retrieval.top_k" is written as top_k under [retrieval].
// Every write replaces the file atomically.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens the store in configDir, creating the directory when
// needed. An empty configDir means DefaultDir. A missing file is an empty
// configuration; a file that does not parse is an error.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(configDir, configFileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string { return configval.String(s.Get(key)) }
func (s *ConfigStore) GetInt(key string) int       { return configval.Int(s.Get(key)) }
func (s *ConfigStore) GetFloat(key string) float64 { return configval.Float(s.Get(key)) }
func (s *ConfigStore) GetBool(key string) bool     { return configval.Bool(s.Get(key)) }

func (s *ConfigStore) GetDuration(key string) time.Duration {
	return configval.Duration(s.Get(key))
}

func (s *ConfigStore) Set(key string, value any) error {
	return s.SetMany(map[string]any{key: value})
}

// SetMany applies the changes to a copy, writes it and only then makes it
// visible to readers.
func (s *ConfigStore) SetMany(changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	for k, v := range changes {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}

	if err := s.write(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func (s *ConfigStore) write(values map[string]any) error {
	body, err := toml.Marshal(nest(values))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	_, err = tmp.WriteString(configHeader)
	if err == nil {
		_, err = tmp.Write(body)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// CreateTemp already uses 0600; keep it explicit since the file holds API keys.
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		raw, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	values := make(map[string]any)
	flatten(values, "", tree)

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}

// Dir returns the directory holding config.toml.
func (s *ConfigStore) Dir() string {
	return filepath.Dir(s.path)
}

// DefaultDir returns ~/.ragcore, honouring RAGCORE_HOME when set.
func DefaultDir() (string, error) {
	if dir := os.Getenv("RAGCORE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ragcore"), nil
}

// flatten copies tree into dst with table names joined onto their keys.
func flatten(dst map[string]any, prefix string, tree map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flatten(dst, k, table)
			continue
		}
		dst[k] = v
	}
}

// nest is the inverse of flatten.
func nest(values map[string]any) map[string]any {
	tree := make(map[string]any)
	for key, v := range values {
		table := tree
		path := strings.Split(key, ".")
		for _, name := range path[:len(path)-1] {
			sub, ok := table[name].(map[string]any)
			if !ok {
				sub = make(map[string]any)
				table[name] = sub
			}
			table = sub
		}
		table[path[len(path)-1]] = v
	}
	return tree
}
