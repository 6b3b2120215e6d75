package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   domain.GenerationErrorKind
	}{
		{429, domain.GenerationRateLimited},
		{401, domain.GenerationAuthFailed},
		{403, domain.GenerationAuthFailed},
		{500, domain.GenerationOther},
		{400, domain.GenerationOther},
		{0, domain.GenerationOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindForStatus(tt.status), "status %d", tt.status)
	}
}

func TestWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultOptions(), WithDefaults(driven.GenerateOptions{}))
	assert.Equal(t,
		driven.GenerateOptions{MaxTokens: 100, Temperature: 0, TopP: DefaultTopP},
		WithDefaults(driven.GenerateOptions{MaxTokens: 100}))
	assert.Equal(t,
		driven.GenerateOptions{MaxTokens: 50, Temperature: 0.7, TopP: 0.5},
		WithDefaults(driven.GenerateOptions{MaxTokens: 50, Temperature: 0.7, TopP: 0.5}))
}

func TestKindForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.GenerationErrorKind
	}{
		{"rate limit", fmt.Errorf("call: %w", &ratelimit.Error{}), domain.GenerationRateLimited},
		{"status 429", &httpapi.StatusError{Code: 429}, domain.GenerationRateLimited},
		{"status 401", fmt.Errorf("call: %w", &httpapi.StatusError{Code: 401}), domain.GenerationAuthFailed},
		{"status 500", &httpapi.StatusError{Code: 500}, domain.GenerationOther},
		{"deadline", context.DeadlineExceeded, domain.GenerationOther},
		{"plain", errors.New("boom"), domain.GenerationOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindForError(tt.err))
		})
	}
}
