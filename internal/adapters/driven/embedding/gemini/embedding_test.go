package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func newTestService(t *testing.T, status int, body string) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "test", BaseURL: srv.URL, Dimensions: 3})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.NoError(t, svc.Close())
}

func TestEmbedBatch(t *testing.T) {
	svc := newTestService(t, http.StatusOK, `{"embeddings":[{"values":[1,0,0]},{"values":[0,1,0]}]}`)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vecs)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	svc := newTestService(t, http.StatusOK, `{"embeddings":[{"values":[1,0,0]}]}`)

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestEmbedBatch_APIError(t *testing.T) {
	svc := newTestService(t, http.StatusBadRequest, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`)

	_, err := svc.Embed(context.Background(), "a")

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, http.StatusOK, `{}`)

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestPing_Unavailable(t *testing.T) {
	svc := newTestService(t, http.StatusForbidden, `{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`)

	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_SplitsLargeInput(t *testing.T) {
	var calls []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Requests []json.RawMessage `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls = append(calls, len(req.Requests))

		var b strings.Builder
		b.WriteString(`{"embeddings":[`)
		for i := range req.Requests {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"values":[0.5,0.5,0]}`)
		}
		b.WriteString("]}")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)

	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k", BaseURL: srv.URL, Dimensions: 3})
	require.NoError(t, err)

	texts := make([]string, 2*maxBatch+5)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	vecs, err := svc.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	assert.Equal(t, []int{maxBatch, maxBatch, 5}, calls)
}

func TestEmbedBatch_APIErrorDetail(t *testing.T) {
	svc := newTestService(t, http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)

	_, err := svc.Embed(context.Background(), "a")

	require.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "quota")
}
