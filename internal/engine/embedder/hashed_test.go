package embedder

import (
	"context"
	"math"
	"testing"
)

func TestHashedDeterministic(t *testing.T) {
	h := NewHashed(0)
	ctx := context.Background()

	text := "approval workflow stuck waiting on legal review for two weeks"
	a, err := h.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	b, err := h.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	if len(a) != DefaultHashedDimension {
		t.Fatalf("dimension = %d, want %d", len(a), DefaultHashedDimension)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestHashedNormalized(t *testing.T) {
	h := NewHashed(64)
	vec, err := h.Embed(context.Background(), "database connection pool exhausted under load")
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Fatalf("norm = %f, want 1.0", math.Sqrt(sum))
	}
}

func TestHashedEmptyInput(t *testing.T) {
	h := NewHashed(64)

	// Empty text and text with only short tokens must both yield the zero
	// vector, not NaN from a divide-by-zero.
	for _, text := range []string{"", "a an of to", "!!! ??"} {
		vec, err := h.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed(%q) error: %v", text, err)
		}
		for i, v := range vec {
			if v != 0 {
				t.Fatalf("Embed(%q)[%d] = %f, want 0", text, i, v)
			}
		}
	}
}

func TestHashedShortTokensDropped(t *testing.T) {
	h := NewHashed(64)
	ctx := context.Background()

	withNoise, _ := h.Embed(ctx, "a is on at deployment failure")
	clean, _ := h.Embed(ctx, "deployment failure")

	for i := range clean {
		if withNoise[i] != clean[i] {
			t.Fatalf("short tokens affected the vector at %d", i)
		}
	}
}

func TestHashedDistinguishesTexts(t *testing.T) {
	h := NewHashed(256)
	ctx := context.Background()

	a, _ := h.Embed(ctx, "server outage in the payment gateway")
	b, _ := h.Embed(ctx, "training material outdated for onboarding")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("unrelated texts produced identical vectors")
	}
}

func TestHashedIdentity(t *testing.T) {
	if got := NewHashed(256).Identity(); got != "hashed-bow/256/v1" {
		t.Fatalf("Identity() = %q", got)
	}
	if got := NewHashed(64).Identity(); got != "hashed-bow/64/v1" {
		t.Fatalf("Identity() = %q", got)
	}
}

func TestHashedEmbedBatchMatchesEmbed(t *testing.T) {
	h := NewHashed(128)
	ctx := context.Background()

	texts := []string{
		"missed handoff between design and engineering",
		"build server disk full again",
	}
	batch, err := h.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}
	for i, text := range texts {
		single, _ := h.Embed(ctx, text)
		for j := range single {
			if batch[i][j] != single[j] {
				t.Fatalf("batch[%d] differs from single embed at %d", i, j)
			}
		}
	}
}
