package beacon

import (
	"context"
	"fmt"

	"github.com/crimson-sun/beacon/internal/config"
	"github.com/crimson-sun/beacon/internal/engine/embedder"
	"github.com/crimson-sun/beacon/internal/pipeline"
	"github.com/crimson-sun/beacon/internal/source"
	sourcemem "github.com/crimson-sun/beacon/internal/source/memory"
	storemem "github.com/crimson-sun/beacon/internal/store/memory"
)

// Beacon is an embedded signal clustering engine. Safe for concurrent use.
type Beacon struct {
	cfg      config.Config
	provider embedder.Provider
}

// New creates a Beacon. With the default hashed embedder this is cheap;
// with WithONNXModel it loads the model once, so create one instance and
// reuse it.
func New(opts ...Option) (*Beacon, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var inner embedder.Provider
	if cfg.Embedder.Provider == "onnx" {
		inner, err = embedder.NewONNX(cfg.Embedder.ModelPath, cfg.Embedder.VocabPath)
		if err != nil {
			return nil, fmt.Errorf("beacon: %w", err)
		}
	} else {
		inner = embedder.NewHashed(cfg.Embedder.Dimension)
	}
	provider, err := embedder.NewCached(inner, embedder.DefaultCacheSize)
	if err != nil {
		inner.Close()
		return nil, fmt.Errorf("beacon: %w", err)
	}
	return &Beacon{cfg: cfg, provider: provider}, nil
}

// Analyze runs one batch over the given signals and returns ranked
// hotspots. Each call is independent; nothing persists between calls.
func (b *Beacon) Analyze(ctx context.Context, signals []Signal) (*Result, error) {
	src := sourcemem.New()
	for _, s := range signals {
		if s.ID == "" {
			return nil, fmt.Errorf("beacon: signal with empty ID")
		}
		src.Add(toInternalSignal(s))
	}

	runner, err := pipeline.New(b.cfg, src, storemem.New(), b.provider)
	if err != nil {
		return nil, err
	}
	res, err := runner.Run(ctx, source.Filter{})
	if res == nil {
		return nil, err
	}
	return fromInternalResult(res), err
}

// Close releases the embedding provider.
func (b *Beacon) Close() error {
	return b.provider.Close()
}
