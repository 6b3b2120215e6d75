package postprocessors

import (
	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/configval"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/postprocessors/chunker"
)

const chunkerName = "chunker"

// RegisterDefaults adds the built-in splitters to r.
func RegisterDefaults(r *Registry) {
	r.Register(chunkerName, buildChunker)
}

// NewDefaultPipeline normalises line endings, trims the text and splits it
// with the chunker configured by settings.
func NewDefaultPipeline(settings domain.ChunkerSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	splitter, err := r.Build(chunkerName, map[string]any{
		"chunk_size": settings.ChunkSize,
		"overlap":    settings.Overlap,
	})
	if err != nil {
		return nil, err
	}
	return NewPipeline(splitter, LineEndings{}, TrimSpace{}), nil
}

// buildChunker reads chunk_size and overlap, both in characters. Absent keys
// keep the chunker defaults; a bad combination is domain.ErrConfiguration.
func buildChunker(cfg map[string]any) (driven.Splitter, error) {
	var opts []chunker.Option
	if v, ok := cfg["chunk_size"]; ok {
		opts = append(opts, chunker.WithChunkSize(configval.Int(v, ok)))
	}
	if v, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(configval.Int(v, ok)))
	}
	return chunker.New(opts...)
}
