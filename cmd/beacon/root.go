package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/beacon/internal/config"
	"github.com/crimson-sun/beacon/internal/engine/embedder"
	"github.com/crimson-sun/beacon/internal/logging"

	// Register signal source implementations.
	_ "github.com/crimson-sun/beacon/internal/source/memory"
	_ "github.com/crimson-sun/beacon/internal/source/rest"
	_ "github.com/crimson-sun/beacon/internal/source/sqlite"
)

var (
	cfgPath     string
	dbOverride  string
	logOverride string
	cfg         config.Config
)

var rootCmd = &cobra.Command{
	Use:           "beacon",
	Short:         "Cluster organizational signals into ranked hotspots",
	Long:          "Beacon classifies incoming signals by root cause, engineers feature vectors,\nclusters them with a three-stage hybrid method, and persists ranked hotspots.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dbOverride != "" {
			cfg.DB = dbOverride
		}
		if logOverride != "" {
			cfg.LogLevel = logOverride
		}
		logging.Init(true, logging.ParseLevel(cfg.LogLevel))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "override database path")
	rootCmd.PersistentFlags().StringVar(&logOverride, "log-level", "", "override log level (debug, info, warn, error)")
}

// newProvider builds the configured embedding provider, wrapped in an LRU
// cache so repeated texts in a batch embed once.
func newProvider() (embedder.Provider, error) {
	var (
		inner embedder.Provider
		err   error
	)
	switch cfg.Embedder.Provider {
	case "onnx":
		inner, err = embedder.NewONNX(cfg.Embedder.ModelPath, cfg.Embedder.VocabPath)
	default:
		inner = embedder.NewHashed(cfg.Embedder.Dimension)
	}
	if err != nil {
		return nil, err
	}
	return embedder.NewCached(inner, embedder.DefaultCacheSize)
}

// printJSON writes v to stdout; logs stay on stderr.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
