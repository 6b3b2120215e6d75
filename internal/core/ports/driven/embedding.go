package driven

import "context"

// EmbeddingService turns text into fixed-length vectors. Every vector it
// returns has Dimensions() components; the index refuses vectors of any
// other length.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in order. Adapters split
	// oversized batches themselves.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping makes the cheapest request that proves the model answers with
	// the configured credentials.
	Ping(ctx context.Context) error

	Close() error
}
