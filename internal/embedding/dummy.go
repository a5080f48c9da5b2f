package embedding

import (
	"context"
	mathrand "math/rand"
)

// DummyEmbedder produces deterministic pseudo-random vectors, seeded from a
// hash of the input text. Useful for development and tests without a real
// embedding backend.
type DummyEmbedder struct {
	dimensions int
}

// NewDummyEmbedder builds a dummy embedder producing vectors of the given
// width (default 1536 when dimensions <= 0).
func NewDummyEmbedder(dimensions int) *DummyEmbedder {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &DummyEmbedder{dimensions: dimensions}
}

// Encode implements retrieval.Embedder. Never errors.
func (d *DummyEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, d.dimensions)
	rng := mathrand.New(mathrand.NewSource(int64(simpleHash(text))))
	for i := range vec {
		vec[i] = rng.Float32()*2 - 1
	}
	return vec, nil
}

// Dimensions reports the configured vector width.
func (d *DummyEmbedder) Dimensions() int {
	return d.dimensions
}

func simpleHash(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
