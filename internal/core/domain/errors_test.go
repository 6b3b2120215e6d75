package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrGeneration", ErrGeneration},
		{"ErrIndexCorruption", ErrIndexCorruption},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Uniqueness tests that no two sentinels match each other
func TestErrors_Uniqueness(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrConfiguration, ErrDimensionMismatch,
		ErrEmbedding, ErrGeneration, ErrIndexCorruption, ErrUnsupportedFormat,
		ErrLLMUnavailable, ErrEmbeddingUnavailable,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

// TestErrors_WithWrapping tests sentinels survive fmt wrapping
func TestErrors_WithWrapping(t *testing.T) {
	wrapped := fmt.Errorf("delete doc-1: %w", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Contains(t, wrapped.Error(), "doc-1")
}

// TestGenerationError_Is tests GenerationError matches ErrGeneration
func TestGenerationError_Is(t *testing.T) {
	cause := errors.New("boom")
	err := NewGenerationError(GenerationRateLimited, "OpenAI", cause)

	assert.True(t, errors.Is(err, ErrGeneration))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrEmbedding))

	wrapped := fmt.Errorf("complete: %w", err)
	var genErr *GenerationError
	require.True(t, errors.As(wrapped, &genErr))
	assert.Equal(t, GenerationRateLimited, genErr.Kind)
}

// TestGenerationError_UserMessage tests per-kind user messages
func TestGenerationError_UserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *GenerationError
		expected string
	}{
		{
			name:     "rate limited",
			err:      NewGenerationError(GenerationRateLimited, "OpenAI", nil),
			expected: "OpenAI rate limit exceeded. Please wait a moment and try again.",
		},
		{
			name:     "auth failed",
			err:      NewGenerationError(GenerationAuthFailed, "OpenAI", nil),
			expected: "OpenAI authentication failed. Please check your API key.",
		},
		{
			name:     "other with cause",
			err:      NewGenerationError(GenerationOther, "Anthropic", errors.New("overloaded")),
			expected: "Anthropic API error: overloaded",
		},
		{
			name:     "missing provider name",
			err:      NewGenerationError(GenerationOther, "", errors.New("timeout")),
			expected: "LLM API error: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.UserMessage())
		})
	}
}

// TestGenerationErrorKind_String tests kind names
func TestGenerationErrorKind_String(t *testing.T) {
	assert.Equal(t, "rate_limited", GenerationRateLimited.String())
	assert.Equal(t, "auth_failed", GenerationAuthFailed.String())
	assert.Equal(t, "other", GenerationOther.String())
}

// TestAsGenerationError tests conversion of arbitrary errors
func TestAsGenerationError(t *testing.T) {
	assert.Nil(t, AsGenerationError(nil))

	plain := errors.New("context deadline exceeded")
	converted := AsGenerationError(plain)
	require.NotNil(t, converted)
	assert.Equal(t, GenerationOther, converted.Kind)
	assert.ErrorIs(t, converted, plain)

	original := NewGenerationError(GenerationAuthFailed, "OpenAI", plain)
	assert.Same(t, original, AsGenerationError(fmt.Errorf("wrap: %w", original)))
}
