package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// DefaultPingTimeout bounds one connectivity check.
const DefaultPingTimeout = 5 * time.Second

// ConfigValidator builds a throwaway service from the settings and pings it.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator using DefaultPingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: DefaultPingTimeout}
}

// WithTimeout changes how long a ping may take.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	v.timeout = d
	return v
}

func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	return probe(v.timeout, func(ctx context.Context) (driven.EmbeddingService, error) {
		return CreateEmbeddingService(ctx, settings)
	})
}

func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	return probe(v.timeout, func(ctx context.Context) (driven.LLMService, error) {
		return CreateLLMService(ctx, settings)
	})
}

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// probe creates a service and pings it. Settings that produce no service
// pass; there is nothing to check yet.
func probe[S pingCloser](timeout time.Duration, create func(context.Context) (S, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	svc, err := create(ctx)
	if err != nil {
		return err
	}
	if any(svc) == nil {
		return nil
	}
	defer svc.Close() //nolint:errcheck // probe only
	return svc.Ping(ctx)
}
