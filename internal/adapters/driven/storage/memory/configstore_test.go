package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Empty(t *testing.T) {
	store := NewConfigStore()

	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Load())
	_, ok := store.Get("llm.provider")
	assert.False(t, ok)
	assert.Zero(t, store.GetInt("retrieval.top_k"))
}

func TestConfigStore_TypedReads(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.SetMany(map[string]any{
		"llm.provider":                 "openai",
		"retrieval.top_k":              int64(8),
		"llm.temperature":              0.3,
		"storage.save_on_write":        true,
		"retrieval.generation_timeout": 5 * time.Second,
		"storage.autosave":             "1m",
	}))

	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.3, store.GetFloat("llm.temperature"), 1e-9)
	assert.True(t, store.GetBool("storage.save_on_write"))
	assert.Equal(t, 5*time.Second, store.GetDuration("retrieval.generation_timeout"))
	assert.Equal(t, time.Minute, store.GetDuration("storage.autosave"))
	assert.Equal(t, "", store.GetString("retrieval.top_k"))
}

func TestConfigStore_SetManyNilDeletes(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("llm.api_key", "sk-old"))
	require.NoError(t, store.Set("llm.model", "gpt-4o"))

	require.NoError(t, store.SetMany(map[string]any{
		"llm.api_key": nil,
		"llm.model":   "gpt-4o-mini",
	}))

	_, ok := store.Get("llm.api_key")
	assert.False(t, ok)
	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))

	// Deleting an absent key is fine.
	assert.NoError(t, store.SetMany(map[string]any{"never.set": nil}))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", n)
			_ = store.GetInt("retrieval.top_k")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("retrieval.top_k")
	assert.True(t, ok)
}
