package postprocessors

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// BuilderFunc builds a splitter from loosely typed settings, as decoded from
// config.toml or assembled in code. A nil map means all defaults.
type BuilderFunc func(cfg map[string]any) (driven.Splitter, error)

// Registry builds splitters by name.
type Registry struct {
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, b BuilderFunc) {
	r.builders[name] = b
}

func (r *Registry) Build(name string, cfg map[string]any) (driven.Splitter, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown splitter %q (have %s)",
			domain.ErrConfiguration, name, strings.Join(r.Names(), ", "))
	}
	return b(cfg)
}

func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names lists registered splitters alphabetically.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}
