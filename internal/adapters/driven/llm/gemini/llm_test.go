package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func newTestService(t *testing.T, status int, body string) *LLMService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	svc, err := NewLLMService(context.Background(), Config{APIKey: "test", BaseURL: srv.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	svc, err := NewLLMService(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 800, svc.opts.MaxTokens)
}

func TestComplete(t *testing.T) {
	svc := newTestService(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"From the "},{"text":"sources."}]}}]}`)

	text, err := svc.Complete(context.Background(), "sys", "q")

	require.NoError(t, err)
	assert.Equal(t, "From the sources.", text)
}

func TestComplete_NoCandidates(t *testing.T) {
	svc := newTestService(t, http.StatusOK, `{"candidates":[]}`)

	_, err := svc.Complete(context.Background(), "sys", "q")

	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestComplete_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   domain.GenerationErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, domain.GenerationRateLimited},
		{"forbidden", http.StatusForbidden, domain.GenerationAuthFailed},
		{"bad request", http.StatusBadRequest, domain.GenerationOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.status, fmt.Sprintf(`{"error":{"code":%d,"message":"failure","status":"X"}}`, tt.status))

			_, err := svc.Complete(context.Background(), "s", "u")

			var genErr *domain.GenerationError
			require.True(t, errors.As(err, &genErr))
			assert.Equal(t, tt.want, genErr.Kind)
			assert.Equal(t, "Gemini", genErr.Provider)
		})
	}
}
