package embedder

import (
	"context"
	"sync/atomic"
	"testing"
)

// countingProvider wraps Hashed and counts inner Embed calls.
type countingProvider struct {
	*Hashed
	calls atomic.Int64
}

func (c *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.Hashed.Embed(ctx, text)
}

func (c *countingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	return c.Hashed.EmbedBatch(ctx, texts)
}

func TestCachedAvoidsRecompute(t *testing.T) {
	inner := &countingProvider{Hashed: NewHashed(64)}
	c, err := NewCached(inner, 16)
	if err != nil {
		t.Fatalf("NewCached() error: %v", err)
	}
	ctx := context.Background()

	first, err := c.Embed(ctx, "vendor invoice stuck in approval")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	second, err := c.Embed(ctx, "vendor invoice stuck in approval")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if inner.calls.Load() != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls.Load())
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at %d", i)
		}
	}
}

func TestCachedBatchPartialHit(t *testing.T) {
	inner := &countingProvider{Hashed: NewHashed(64)}
	c, _ := NewCached(inner, 16)
	ctx := context.Background()

	if _, err := c.Embed(ctx, "alpha signal text"); err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	vecs, err := c.EmbedBatch(ctx, []string{"alpha signal text", "beta signal text"})
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("len = %d, want 2", len(vecs))
	}
	// One call for alpha up front, one for the beta miss.
	if inner.calls.Load() != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls.Load())
	}
}

func TestCachedPreservesIdentity(t *testing.T) {
	c, _ := NewCached(NewHashed(128), 0)
	if c.Identity() != "hashed-bow/128/v1" {
		t.Fatalf("Identity() = %q", c.Identity())
	}
	if c.Dimension() != 128 {
		t.Fatalf("Dimension() = %d", c.Dimension())
	}
}
