package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/beacon/internal/config"
	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/pipeline"
	"github.com/crimson-sun/beacon/internal/report"
	reportasync "github.com/crimson-sun/beacon/internal/report/async"
	reportfile "github.com/crimson-sun/beacon/internal/report/file"
	reportmulti "github.com/crimson-sun/beacon/internal/report/multi"
	reportstdout "github.com/crimson-sun/beacon/internal/report/stdout"
	reportwebhook "github.com/crimson-sun/beacon/internal/report/webhook"
	"github.com/crimson-sun/beacon/internal/source"
	storesqlite "github.com/crimson-sun/beacon/internal/store/sqlite"
)

var runFlags struct {
	sourceName       string
	sourceDSN        string
	sourceToken      string
	department       string
	team             string
	minSeverity      string
	since            string
	limit            int
	includeProcessed bool
	signalIDs        []string
	reportFile       string
	reportWebhook    string
	verbosity        string
	pretty           bool
	target           int
	minClusterSize   int
	minSamples       int
	quality          float64
	workers          int
	budget           time.Duration
}

// applyOverrides copies explicitly set clustering flags onto the loaded
// config. Validation happens once afterwards, so a bad flag value fails the
// same way a bad env var does.
func applyOverrides(cmd *cobra.Command) error {
	if cmd.Flags().Changed("target") {
		cfg.Cluster.TargetClusters = runFlags.target
	}
	if cmd.Flags().Changed("min-cluster-size") {
		cfg.Cluster.MinClusterSize = runFlags.minClusterSize
	}
	if cmd.Flags().Changed("min-samples") {
		cfg.Cluster.MinSamples = runFlags.minSamples
	}
	if cmd.Flags().Changed("quality") {
		cfg.Cluster.QualityThreshold = runFlags.quality
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = runFlags.workers
	}
	if cmd.Flags().Changed("budget") {
		cfg.Budget = runFlags.budget
	}
	return cfg.Validate()
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one batch: classify, cluster, rank, persist",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyOverrides(cmd); err != nil {
			return err
		}

		provider, err := newProvider()
		if err != nil {
			return err
		}
		defer provider.Close()

		srcCfg := source.Config{DSN: cfg.DB}
		if runFlags.sourceDSN != "" {
			srcCfg.DSN = runFlags.sourceDSN
		}
		if runFlags.sourceToken != "" {
			srcCfg.Extra = map[string]string{"token": runFlags.sourceToken}
		}
		src, err := source.Open(runFlags.sourceName, srcCfg)
		if err != nil {
			return err
		}
		defer src.Close()

		st, err := storesqlite.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := pipeline.New(cfg, src, st, provider)
		if err != nil {
			return err
		}

		reporter, err := buildReporter()
		if err != nil {
			return err
		}
		defer reporter.Close()

		f := source.Filter{
			Department:       runFlags.department,
			Team:             runFlags.team,
			Limit:            runFlags.limit,
			IncludeProcessed: runFlags.includeProcessed,
			IDs:              runFlags.signalIDs,
		}
		if runFlags.minSeverity != "" {
			f.MinSeverity = model.ParseSeverity(runFlags.minSeverity)
		}
		if runFlags.since != "" {
			since, err := time.Parse(time.RFC3339, runFlags.since)
			if err != nil {
				return fmt.Errorf("bad --since value %q: %w", runFlags.since, err)
			}
			f.Since = since
		}

		res, runErr := runner.Run(cmd.Context(), f)
		if res != nil {
			if err := reporter.Publish(cmd.Context(), *res); err != nil {
				return err
			}
		}
		return runErr
	},
}

// buildReporter assembles the result destinations: stdout always, plus an
// NDJSON run log and a webhook when configured. The webhook is wrapped in
// the async publisher so its retry backoff never delays the command.
func buildReporter() (report.Reporter, error) {
	v, err := report.ParseVerbosity(runFlags.verbosity)
	if err != nil {
		return nil, err
	}

	reporters := []report.Reporter{reportstdout.New(v, runFlags.pretty)}
	if runFlags.reportFile != "" {
		fr, err := reportfile.New(runFlags.reportFile, v)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, fr)
	}
	if runFlags.reportWebhook != "" {
		wr := reportwebhook.New(runFlags.reportWebhook, v)
		reporters = append(reporters, reportasync.New(wr))
	}
	if len(reporters) == 1 {
		return reporters[0], nil
	}
	return reportmulti.New(reporters...), nil
}

func init() {
	runCmd.Flags().StringVar(&runFlags.sourceName, "source", "sqlite", "signal source")
	runCmd.Flags().StringVar(&runFlags.sourceDSN, "source-dsn", "", "source connection string (defaults to the database path)")
	runCmd.Flags().StringVar(&runFlags.sourceToken, "source-token", "", "bearer token for the rest source")
	runCmd.Flags().StringVar(&runFlags.department, "department", "", "only signals from this department")
	runCmd.Flags().StringVar(&runFlags.team, "team", "", "only signals from this team")
	runCmd.Flags().StringVar(&runFlags.minSeverity, "min-severity", "", "minimum severity (LOW, MEDIUM, HIGH, CRITICAL)")
	runCmd.Flags().StringVar(&runFlags.since, "since", "", "only signals created at or after this RFC 3339 time")
	runCmd.Flags().IntVar(&runFlags.limit, "limit", 0, "cap the number of signals pulled")
	runCmd.Flags().BoolVar(&runFlags.includeProcessed, "include-processed", false, "re-cluster signals from earlier runs")
	runCmd.Flags().StringSliceVar(&runFlags.signalIDs, "signal-ids", nil, "re-cluster exactly these signal IDs")
	runCmd.Flags().StringVar(&runFlags.reportFile, "report-file", "", "append the batch result to this NDJSON run log")
	runCmd.Flags().StringVar(&runFlags.reportWebhook, "report-webhook", "", "POST the batch result to this URL")
	runCmd.Flags().StringVar(&runFlags.verbosity, "verbosity", "standard", "result detail: minimal, standard, full")
	runCmd.Flags().BoolVar(&runFlags.pretty, "pretty", false, "indent the JSON result")
	runCmd.Flags().IntVar(&runFlags.target, "target", config.DefaultTargetClusters, "target cluster count (4-6)")
	runCmd.Flags().IntVar(&runFlags.minClusterSize, "min-cluster-size", config.DefaultMinClusterSize, "minimum signals per cluster")
	runCmd.Flags().IntVar(&runFlags.minSamples, "min-samples", config.DefaultMinSamples, "density neighborhood size")
	runCmd.Flags().Float64Var(&runFlags.quality, "quality", config.DefaultQualityThreshold, "cluster quality gate")
	runCmd.Flags().IntVar(&runFlags.workers, "workers", config.DefaultWorkers, "annotation worker count")
	runCmd.Flags().DurationVar(&runFlags.budget, "budget", config.DefaultBudget, "run time budget")
	rootCmd.AddCommand(runCmd)
}
