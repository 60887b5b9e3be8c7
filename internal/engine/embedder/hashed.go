package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashedDimension is the accumulator size of the hashed provider.
const DefaultHashedDimension = 256

const (
	primaryWeight   = 1.0
	secondaryWeight = 0.5
	minTokenLen     = 3
)

// Hashed is the deterministic bag-of-words fallback provider for offline
// or degraded operation. Each token lands at two accumulator positions: a
// primary hash at full weight and a hash of the reversed token at half
// weight, which separates anagram-heavy vocabularies that a single hash
// would collapse. The result is L2-normalized.
//
// Same text in, same vector out — always. Both indexing and query paths
// must use the same provider; mixing hashed and trained vectors corrupts
// cosine comparison silently.
type Hashed struct {
	dim int
}

// NewHashed creates a hashed provider with the given dimension. A
// non-positive dimension falls back to DefaultHashedDimension.
func NewHashed(dim int) *Hashed {
	if dim <= 0 {
		dim = DefaultHashedDimension
	}
	return &Hashed{dim: dim}
}

func (h *Hashed) Dimension() int { return h.dim }

func (h *Hashed) Identity() string {
	return fmt.Sprintf("hashed-bow/%d/v1", h.dim)
}

func (h *Hashed) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)
	for _, tok := range hashTokenize(text) {
		vec[bucket(tok, h.dim)] += primaryWeight
		vec[bucket(reverse(tok), h.dim)] += secondaryWeight
	}
	return normalize(vec), nil
}

func (h *Hashed) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (h *Hashed) Close() error { return nil }

// hashTokenize lowercases, splits on non-alphanumeric runes, and drops
// tokens shorter than minTokenLen.
func hashTokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func bucket(token string, dim int) int {
	h := fnv.New64a()
	h.Write([]byte(token))
	return int(h.Sum64() % uint64(dim))
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
