package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// normalize scales v to unit length in place so inner products are cosine
// similarities. A zero vector is left unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// checkDimension rejects vectors of the wrong size before they reach the store.
func checkDimension(v []float32, want int) error {
	if len(v) != want {
		return fmt.Errorf("%w: embedder returned %d components, index has %d",
			domain.ErrDimensionMismatch, len(v), want)
	}
	return nil
}
