package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/configval"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in a map. Nothing survives the process.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
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

func (s *ConfigStore) SetMany(changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range changes {
		if v == nil {
			delete(s.values, k)
			continue
		}
		s.values[k] = v
	}
	return nil
}

// Load is a no-op; there is no backing storage to reread.
func (s *ConfigStore) Load() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }
