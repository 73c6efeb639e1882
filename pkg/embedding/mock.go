package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
)

// MockEmbedder is a deterministic, hash-seeded embedder. It is the only
// variant permitted in tests (spec.md §4.A): given the same text it always
// produces the same vector, with no model load and no I/O.
type MockEmbedder struct {
	dim int
}

// NewMockEmbedder builds a deterministic embedder of the given dimension.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{dim: dim}
}

func (m *MockEmbedder) Dimension() int { return m.dim }

func (m *MockEmbedder) EmbedOne(_ context.Context, text string) ([]float32, error) {
	return seededVector(text, m.dim), nil
}

func (m *MockEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = seededVector(t, m.dim)
	}
	return out, nil
}

func seededVector(text string, dim int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := int64(h.Sum64())
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float32, dim)
	var sumSq float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		sumSq += v * v
	}
	// L2-normalize so cosine math behaves like it would for real embeddings.
	if sumSq > 0 {
		norm := float32(1.0 / math.Sqrt(sumSq))
		for i := range vec {
			vec[i] *= norm
		}
	}
	return vec
}
