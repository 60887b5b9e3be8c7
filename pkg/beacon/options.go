package beacon

import (
	"time"

	"github.com/crimson-sun/beacon/internal/config"
)

// Option configures a Beacon instance.
type Option func(*config.Config)

// WithTargetClusters sets the executive cluster bound, constrained to
// [4,6]. Default: 5.
func WithTargetClusters(n int) Option {
	return func(c *config.Config) { c.Cluster.TargetClusters = n }
}

// WithMinClusterSize sets the minimum viable cluster size. Default: 3.
func WithMinClusterSize(n int) Option {
	return func(c *config.Config) { c.Cluster.MinClusterSize = n }
}

// WithQualityThreshold sets the accept gate on cluster potential
// (confidence times cohesion). Default: 0.7.
func WithQualityThreshold(t float64) Option {
	return func(c *config.Config) { c.Cluster.QualityThreshold = t }
}

// WithWorkers sets the annotation concurrency. Default: 3.
func WithWorkers(n int) Option {
	return func(c *config.Config) { c.Workers = n }
}

// WithBudget sets the per-batch time budget. Default: 30s.
func WithBudget(d time.Duration) Option {
	return func(c *config.Config) { c.Budget = d }
}

// WithHashedDimension sets the hashed embedding width. Default: 256.
func WithHashedDimension(dim int) Option {
	return func(c *config.Config) { c.Embedder.Dimension = dim }
}

// WithONNXModel switches embedding to a local ONNX sentence transformer.
// Expects the model file and its WordPiece vocabulary.
func WithONNXModel(modelPath, vocabPath string) Option {
	return func(c *config.Config) {
		c.Embedder.Provider = "onnx"
		c.Embedder.ModelPath = modelPath
		c.Embedder.VocabPath = vocabPath
	}
}
