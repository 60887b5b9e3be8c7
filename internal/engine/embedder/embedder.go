package embedder

import (
	"context"
	"math"
)

// Provider produces L2-normalized vector embeddings from free text.
//
// Identity names the provider and its version. Vectors from different
// identities live in different spaces; the clustering engine refuses to
// compare them, so the identity travels with every feature vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Identity() string
	Close() error
}

// normalize scales vec to unit L2 norm in place. An all-zero vector is
// returned unchanged.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
