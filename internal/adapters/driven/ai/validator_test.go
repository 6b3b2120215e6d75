package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestConfigValidator_NothingToCheck(t *testing.T) {
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(nil))
	assert.NoError(t, v.ValidateLLM(nil))
	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Model: "m"}))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Model: "m"}))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOpenAI}), "no key yet")
}

func TestConfigValidator_LocalEmbedderAlwaysValid(t *testing.T) {
	assert.NoError(t, NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderLocal}))
}

func TestConfigValidator_AnthropicEmbeddingRejected(t *testing.T) {
	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderAnthropic,
		APIKey:   "k",
	})
	assert.ErrorContains(t, err, "does not support embeddings")
}

func TestConfigValidator_PingsProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	v := NewConfigValidator()

	assert.NoError(t, v.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}))
	assert.NoError(t, v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}))

	err := v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	err = v.ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestConfigValidator_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	v := NewConfigValidator().WithTimeout(20 * time.Millisecond)
	start := time.Now()
	err := v.ValidateLLM(&domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}
