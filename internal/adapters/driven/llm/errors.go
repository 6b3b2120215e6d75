// Package llm holds helpers shared by the generation adapters in its subpackages.
package llm

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Default sampling parameters for grounded answers.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 800
	DefaultTopP        = 0.9
)

// DefaultOptions returns the default sampling parameters.
func DefaultOptions() driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
	}
}

// WithDefaults fills unset fields. A zero MaxTokens marks the whole struct as unset
// so an explicit temperature of 0 survives.
func WithDefaults(opts driven.GenerateOptions) driven.GenerateOptions {
	if opts.MaxTokens <= 0 {
		return DefaultOptions()
	}
	if opts.TopP <= 0 {
		opts.TopP = DefaultTopP
	}
	return opts
}

// KindForStatus maps an HTTP status to a generation error kind.
func KindForStatus(status int) domain.GenerationErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return domain.GenerationRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.GenerationAuthFailed
	default:
		return domain.GenerationOther
	}
}

// KindForError classifies a transport error from httpapi.
func KindForError(err error) domain.GenerationErrorKind {
	var rlErr *ratelimit.Error
	if errors.As(err, &rlErr) {
		return domain.GenerationRateLimited
	}
	var statusErr *httpapi.StatusError
	if errors.As(err, &statusErr) {
		return KindForStatus(statusErr.Code)
	}
	return domain.GenerationOther
}
