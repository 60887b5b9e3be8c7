package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/beacon/internal/model"
)

// Clustering option bounds and defaults. Empirically chosen constants from
// the product side; override per request, never silently clamp.
const (
	TargetMin = 4
	TargetMax = 6

	DefaultTargetClusters   = 5
	DefaultMinClusterSize   = 3
	DefaultMinSamples       = 2
	DefaultQualityThreshold = 0.7
	DefaultWorkers          = 3
	DefaultBudget           = 30 * time.Second
)

// Config holds all Beacon configuration.
type Config struct {
	DB       string         `yaml:"db"`
	LogLevel string         `yaml:"log_level"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Workers  int            `yaml:"workers"`
	Budget   time.Duration  `yaml:"budget"`
}

// EmbedderConfig selects the embedding provider.
type EmbedderConfig struct {
	// Provider is "hashed" or "onnx".
	Provider  string `yaml:"provider"`
	ModelPath string `yaml:"model_path"`
	VocabPath string `yaml:"vocab_path"`
	// Dimension applies to the hashed provider only.
	Dimension int `yaml:"dimension"`
}

// ClusterConfig holds the hybrid clustering options.
type ClusterConfig struct {
	TargetClusters   int     `yaml:"target_clusters"`
	MinClusterSize   int     `yaml:"min_cluster_size"`
	MinSamples       int     `yaml:"min_samples"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

// Load reads configuration: defaults, then an optional YAML file, then
// environment variable overrides. path may be empty.
func Load(path string) (Config, error) {
	cfg := Config{
		DB:       "beacon.db",
		LogLevel: "info",
		Embedder: EmbedderConfig{
			Provider:  "hashed",
			Dimension: 256,
		},
		Cluster: ClusterConfig{
			TargetClusters:   DefaultTargetClusters,
			MinClusterSize:   DefaultMinClusterSize,
			MinSamples:       DefaultMinSamples,
			QualityThreshold: DefaultQualityThreshold,
		},
		Workers: DefaultWorkers,
		Budget:  DefaultBudget,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.DB = getenv("BEACON_DB", cfg.DB)
	cfg.LogLevel = getenv("BEACON_LOG_LEVEL", cfg.LogLevel)
	cfg.Embedder.Provider = getenv("BEACON_EMBEDDER", cfg.Embedder.Provider)
	cfg.Embedder.ModelPath = getenv("BEACON_MODEL_PATH", cfg.Embedder.ModelPath)
	cfg.Embedder.VocabPath = getenv("BEACON_VOCAB_PATH", cfg.Embedder.VocabPath)
	cfg.Embedder.Dimension = getenvInt("BEACON_EMBED_DIM", cfg.Embedder.Dimension)
	cfg.Cluster.TargetClusters = getenvInt("BEACON_TARGET_CLUSTERS", cfg.Cluster.TargetClusters)
	cfg.Cluster.MinClusterSize = getenvInt("BEACON_MIN_CLUSTER_SIZE", cfg.Cluster.MinClusterSize)
	cfg.Cluster.MinSamples = getenvInt("BEACON_MIN_SAMPLES", cfg.Cluster.MinSamples)
	cfg.Cluster.QualityThreshold = getenvFloat("BEACON_QUALITY_THRESHOLD", cfg.Cluster.QualityThreshold)
	cfg.Workers = getenvInt("BEACON_WORKERS", cfg.Workers)
	if d := os.Getenv("BEACON_BUDGET"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			cfg.Budget = parsed
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects invalid option combinations before any work starts.
func (c Config) Validate() error {
	if c.Cluster.TargetClusters < TargetMin || c.Cluster.TargetClusters > TargetMax {
		return fmt.Errorf("config: target_clusters %d outside [%d,%d]: %w",
			c.Cluster.TargetClusters, TargetMin, TargetMax, model.ErrInvalidOptions)
	}
	if c.Cluster.MinClusterSize < 1 {
		return fmt.Errorf("config: min_cluster_size %d < 1: %w", c.Cluster.MinClusterSize, model.ErrInvalidOptions)
	}
	if c.Cluster.MinSamples < 1 {
		return fmt.Errorf("config: min_samples %d < 1: %w", c.Cluster.MinSamples, model.ErrInvalidOptions)
	}
	if c.Cluster.QualityThreshold < 0 || c.Cluster.QualityThreshold > 1 {
		return fmt.Errorf("config: quality_threshold %g outside [0,1]: %w", c.Cluster.QualityThreshold, model.ErrInvalidOptions)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers %d < 1: %w", c.Workers, model.ErrInvalidOptions)
	}
	switch c.Embedder.Provider {
	case "hashed", "onnx":
	default:
		return fmt.Errorf("config: unknown embedder provider %q: %w", c.Embedder.Provider, model.ErrInvalidOptions)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
