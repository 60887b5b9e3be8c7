// Package pipeline wires source, engine, clustering, and store into the
// batch run: pull signals, annotate them concurrently, cluster, score
// memberships, rank, and persist hotspots.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/beacon/internal/config"
	"github.com/crimson-sun/beacon/internal/engine"
	"github.com/crimson-sun/beacon/internal/engine/cluster"
	"github.com/crimson-sun/beacon/internal/engine/embedder"
	"github.com/crimson-sun/beacon/internal/engine/membership"
	"github.com/crimson-sun/beacon/internal/engine/ranker"
	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/source"
	"github.com/crimson-sun/beacon/internal/store"
)

// Runner executes batch runs against one source/store pair. Safe to reuse
// across runs.
type Runner struct {
	source  source.Source
	store   store.Store
	engine  *engine.Engine
	cluster *cluster.Engine
	ranker  *ranker.Ranker
	workers int
	budget  time.Duration
	minSize int
	log     *slog.Logger
	now     func() time.Time
}

// New builds a Runner from validated configuration.
func New(cfg config.Config, src source.Source, st store.Store, provider embedder.Provider) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ce, err := cluster.New(cluster.Options{
		TargetClusters:   cfg.Cluster.TargetClusters,
		MinClusterSize:   cfg.Cluster.MinClusterSize,
		MinSamples:       cfg.Cluster.MinSamples,
		QualityThreshold: cfg.Cluster.QualityThreshold,
	})
	if err != nil {
		return nil, err
	}
	rk, err := ranker.New(ranker.DefaultWeights())
	if err != nil {
		return nil, err
	}
	return &Runner{
		source:  src,
		store:   st,
		engine:  engine.New(provider),
		cluster: ce,
		ranker:  rk,
		workers: cfg.Workers,
		budget:  cfg.Budget,
		minSize: cfg.Cluster.MinClusterSize,
		log:     slog.Default().With("component", "pipeline"),
		now:     time.Now,
	}, nil
}

// Run executes one batch under the configured time budget. The returned
// BatchResult is always populated, even when the run fails partway: a
// failed batch still reports whatever subset it got through.
func (r *Runner) Run(ctx context.Context, f source.Filter) (*model.BatchResult, error) {
	start := r.now()
	res := &model.BatchResult{
		RunID:           uuid.NewString(),
		Status:          model.StatusInternalError,
		RootCauseCounts: make(map[model.RootCause]int),
	}
	defer func() { res.Duration = time.Since(start) }()

	ctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()

	log := r.log.With("run_id", res.RunID)

	signals, err := r.source.Signals(ctx, f)
	if err != nil {
		if ctx.Err() != nil {
			res.Status = model.StatusTimeout
			return res, fmt.Errorf("pipeline: load signals: %w: %w", model.ErrBudgetExceeded, err)
		}
		return res, fmt.Errorf("pipeline: load signals: %w", err)
	}
	res.Processed = len(signals)
	if len(signals) < r.minSize {
		res.Status = model.StatusInsufficientInput
		log.Info("not enough signals to cluster", "signals", len(signals), "need", r.minSize)
		return res, nil
	}
	log.Info("batch started", "signals", len(signals), "workers", r.workers, "budget", r.budget)

	annotations := r.annotate(ctx, signals, res)
	if res.Succeeded < r.minSize {
		if res.Succeeded == 0 && ctx.Err() != nil {
			res.Status = model.StatusTimeout
			return res, fmt.Errorf("pipeline: annotation: %w: %w", model.ErrBudgetExceeded, ctx.Err())
		}
		res.Status = model.StatusInsufficientInput
		log.Warn("too few annotated signals to cluster", "succeeded", res.Succeeded)
		return res, nil
	}

	vectors := make([]model.FeatureVector, 0, len(annotations))
	cls := make(map[string]model.Classification, len(annotations))
	for _, a := range annotations {
		vectors = append(vectors, a.Vector)
		cls[a.Classification.SignalID] = a.Classification
	}

	cres, err := r.cluster.Cluster(ctx, vectors, cls)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			res.Status = model.StatusTimeout
		case errors.Is(err, model.ErrInsufficientInput):
			res.Status = model.StatusInsufficientInput
		}
		return res, fmt.Errorf("pipeline: cluster: %w", err)
	}
	res.Degraded = cres.Degraded
	res.Stages = cres.Stages

	assignments, err := membership.Score(cres.Clusters, vectors)
	if err != nil {
		return res, fmt.Errorf("pipeline: membership: %w", err)
	}

	if err := r.publish(ctx, signals, cres.Clusters, assignments, res); err != nil {
		return res, fmt.Errorf("pipeline: publish: %w", err)
	}

	processed := make([]string, 0, len(annotations))
	for _, a := range annotations {
		processed = append(processed, a.Vector.SignalID)
	}
	if err := r.source.MarkProcessed(ctx, processed); err != nil {
		return res, fmt.Errorf("pipeline: mark processed: %w", err)
	}

	if res.Degraded {
		res.Status = model.StatusDegraded
	} else {
		res.Status = model.StatusSuccess
	}
	log.Info("batch finished", "status", res.Status, "hotspots", len(res.Hotspots), "noise", len(cres.Noise))
	return res, nil
}

// Rerank refreshes the rank score of every stored hotspot without running a
// batch, and returns the refreshed listing.
func (r *Runner) Rerank(ctx context.Context, f store.Filter) ([]model.Hotspot, error) {
	hotspots, err := r.store.ListHotspots(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list hotspots: %w", err)
	}
	for i, h := range hotspots {
		score := r.ranker.Rescore(h)
		if err := r.store.SetRankScore(ctx, h.ID, score); err != nil {
			return nil, fmt.Errorf("pipeline: rerank %s: %w", h.ID, err)
		}
		hotspots[i].RankScore = score
	}
	return r.store.ListHotspots(ctx, f)
}
