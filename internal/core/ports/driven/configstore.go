package driven

import "time"

// ConfigStore holds configuration under flat dotted keys such as
// "retrieval.top_k". Typed reads return the zero value for a missing key or
// one whose value does not convert; use Get to tell the two apart.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	// GetDuration accepts "30s" style strings and bare seconds.
	GetDuration(key string) time.Duration

	// Set writes one key and persists it.
	Set(key string, value any) error

	// SetMany writes every key in a single persist. A nil value deletes
	// the key. Either all changes are stored or none are.
	SetMany(values map[string]any) error

	// Load discards in-memory values and rereads the backing storage.
	Load() error

	// Path identifies the backing storage, for display.
	Path() string
}
