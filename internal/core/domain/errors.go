package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates invalid construction parameters, such as
	// chunker bounds or a zero embedding dimension.
	ErrConfiguration = errors.New("configuration error")

	// ErrDimensionMismatch indicates an embedding whose length differs from
	// the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbedding indicates the embedding provider failed for a request.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the generation provider failed for a request.
	ErrGeneration = errors.New("generation failed")

	// ErrIndexCorruption indicates persisted index state failed validation.
	// Startup must not continue with such state.
	ErrIndexCorruption = errors.New("index corrupted")

	// ErrUnsupportedFormat indicates no text extractor handles a MIME type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answers degrade to citations only.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// GenerationErrorKind classifies generation failures.
type GenerationErrorKind int

const (
	// GenerationOther covers timeouts, transport and provider errors.
	GenerationOther GenerationErrorKind = iota

	// GenerationRateLimited indicates the provider throttled the request.
	GenerationRateLimited

	// GenerationAuthFailed indicates the provider rejected the credentials.
	GenerationAuthFailed
)

// String returns the string representation.
func (k GenerationErrorKind) String() string {
	switch k {
	case GenerationRateLimited:
		return "rate_limited"
	case GenerationAuthFailed:
		return "auth_failed"
	default:
		return "other"
	}
}

// GenerationError is returned by LLM adapters when completion fails.
type GenerationError struct {
	Kind GenerationErrorKind

	// Provider is the display name used in user-facing messages, e.g. "OpenAI".
	Provider string

	Err error
}

// NewGenerationError wraps err with the given kind.
func NewGenerationError(kind GenerationErrorKind, provider string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Provider: provider, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is reports ErrGeneration as a match so callers can test with errors.Is.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// UserMessage returns the reason shown to end users.
func (e *GenerationError) UserMessage() string {
	provider := e.Provider
	if provider == "" {
		provider = "LLM"
	}
	switch e.Kind {
	case GenerationRateLimited:
		return provider + " rate limit exceeded. Please wait a moment and try again."
	case GenerationAuthFailed:
		return provider + " authentication failed. Please check your API key."
	default:
		if e.Err == nil {
			return provider + " API error"
		}
		return provider + " API error: " + e.Err.Error()
	}
}

// AsGenerationError converts any error into a GenerationError.
// Errors that are not already generation errors become GenerationOther.
func AsGenerationError(err error) *GenerationError {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return NewGenerationError(GenerationOther, "", err)
}
