// Package cluster implements the three-stage hybrid clustering engine:
// density-based domain partition, semantic refinement, and executive
// optimization toward a bounded cluster count.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
)

// Method names the clustering method and version recorded on hotspots.
const Method = "hybrid/v1"

const (
	// cohesionFloor is the stage-2 split threshold: clusters whose mean
	// pairwise semantic similarity falls below it get split.
	cohesionFloor = 0.45

	// mergeThreshold is the stage-2 merge threshold: clusters whose
	// semantic centroids are this similar are near-duplicates.
	mergeThreshold = 0.85

	// targetFloor is the lower bound of the executive cluster count.
	targetFloor = 4
)

// Options control one clustering run. Invalid combinations are rejected at
// construction, never clamped.
type Options struct {
	// TargetClusters is the executive upper bound, constrained to [4,6].
	TargetClusters   int
	MinClusterSize   int
	MinSamples       int
	QualityThreshold float64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		TargetClusters:   5,
		MinClusterSize:   3,
		MinSamples:       2,
		QualityThreshold: 0.7,
	}
}

// Validate rejects invalid option combinations.
func (o Options) Validate() error {
	if o.TargetClusters < targetFloor || o.TargetClusters > 6 {
		return fmt.Errorf("cluster: target %d outside [4,6]: %w", o.TargetClusters, model.ErrInvalidOptions)
	}
	if o.MinClusterSize < 1 {
		return fmt.Errorf("cluster: min cluster size %d: %w", o.MinClusterSize, model.ErrInvalidOptions)
	}
	if o.MinSamples < 1 {
		return fmt.Errorf("cluster: min samples %d: %w", o.MinSamples, model.ErrInvalidOptions)
	}
	if o.QualityThreshold < 0 || o.QualityThreshold > 1 {
		return fmt.Errorf("cluster: quality threshold %g: %w", o.QualityThreshold, model.ErrInvalidOptions)
	}
	return nil
}

// Result is the output of one clustering run.
type Result struct {
	Clusters []model.Cluster
	// Noise holds signal IDs not assigned to any accepted cluster.
	Noise []string
	// Degraded is set when the density stage fell back to centroid
	// grouping. A recorded degradation, not a silent quality drop.
	Degraded bool
	Stages   []model.StageMetrics
}

// point is the engine's working view of one signal.
type point struct {
	id     string
	full   []float64
	sem    []float64
	conf   float64
	cause  model.RootCause
	impact float64
}

// Engine runs the three-stage pipeline over a batch of feature vectors.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// New creates an Engine, validating the options first.
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, log: slog.Default().With("component", "cluster")}, nil
}

// Cluster partitions the given feature vectors. Classifications supply
// per-signal confidence and root cause; vectors without a classification
// fall back to the vector's own confidence and UNKNOWN.
//
// The context deadline is checked between stages and inside the density
// stage so a timed-out run stops promptly.
func (e *Engine) Cluster(ctx context.Context, vectors []model.FeatureVector, cls map[string]model.Classification) (*Result, error) {
	if len(vectors) < e.opts.MinClusterSize {
		return nil, fmt.Errorf("cluster: %d signals, need at least %d: %w",
			len(vectors), e.opts.MinClusterSize, model.ErrInsufficientInput)
	}
	if err := checkProvider(vectors); err != nil {
		return nil, err
	}

	pts := buildPoints(vectors, cls)
	res := &Result{}

	// Stage 1: domain partition by overall similarity, target-blind.
	start := time.Now()
	groups, noise, degraded, err := e.densityStage(ctx, pts)
	if err != nil {
		return nil, err
	}
	res.Degraded = degraded
	res.Stages = append(res.Stages, model.StageMetrics{
		Stage: "domain-partition", Clusters: len(groups), Noise: len(noise), Duration: time.Since(start),
	})
	// A degraded run finishes on the cheap path; the remaining stages are
	// linear-ish and the caller still gets a usable, flagged result.
	if err := ctx.Err(); err != nil && !res.Degraded {
		return nil, fmt.Errorf("cluster: after domain partition: %w", err)
	}

	// Stage 2: semantic refinement over the embedding sub-space.
	start = time.Now()
	groups = e.refineStage(pts, groups)
	res.Stages = append(res.Stages, model.StageMetrics{
		Stage: "semantic-refinement", Clusters: len(groups), Noise: len(noise), Duration: time.Since(start),
	})
	if err := ctx.Err(); err != nil && !res.Degraded {
		return nil, fmt.Errorf("cluster: after semantic refinement: %w", err)
	}

	// Stage 3: executive optimization toward the bounded count, then the
	// accept/reject gate.
	start = time.Now()
	groups, rejected := e.optimizeStage(pts, groups)
	noise = append(noise, rejected...)
	res.Stages = append(res.Stages, model.StageMetrics{
		Stage: "executive-optimization", Clusters: len(groups), Noise: len(noise), Duration: time.Since(start),
	})

	res.Clusters = e.assemble(pts, groups)
	res.Noise = noiseIDs(pts, noise)
	return res, nil
}

// checkProvider refuses to cluster vectors from two embedding providers:
// their cosine spaces are incompatible and mixing them corrupts every
// similarity silently.
func checkProvider(vectors []model.FeatureVector) error {
	ident := vectors[0].Provider
	for _, v := range vectors[1:] {
		if v.Provider != ident {
			return fmt.Errorf("cluster: %q vs %q: %w", ident, v.Provider, model.ErrProviderMismatch)
		}
	}
	return nil
}

// buildPoints converts vectors to working points in a deterministic order.
func buildPoints(vectors []model.FeatureVector, cls map[string]model.Classification) []point {
	sorted := make([]model.FeatureVector, len(vectors))
	copy(sorted, vectors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SignalID < sorted[j].SignalID })

	pts := make([]point, len(sorted))
	for i, v := range sorted {
		p := point{
			id:     v.SignalID,
			full:   v.Concat(),
			sem:    v.Semantic(),
			conf:   v.Confidence,
			cause:  model.RootCauseUnknown,
			impact: v.Impact,
		}
		if c, ok := cls[v.SignalID]; ok {
			p.conf = c.Confidence
			p.cause = c.RootCause
		}
		pts[i] = p
	}
	return pts
}

// assemble converts index groups to model.Cluster records, largest first.
func (e *Engine) assemble(pts []point, groups [][]int) []model.Cluster {
	clusters := make([]model.Cluster, 0, len(groups))
	for _, g := range groups {
		cen := centroid(pts, g, fullVec)
		c := model.Cluster{
			SignalIDs:     make([]string, 0, len(g)),
			Centroid:      cen,
			Cohesion:      meanSimTo(pts, g, cen, fullVec),
			Confidence:    meanConf(pts, g),
			DominantCause: dominantCause(pts, g),
		}
		for _, i := range g {
			c.SignalIDs = append(c.SignalIDs, pts[i].id)
		}
		sort.Strings(c.SignalIDs)
		clusters = append(clusters, c)
	}

	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].SignalIDs) != len(clusters[j].SignalIDs) {
			return len(clusters[i].SignalIDs) > len(clusters[j].SignalIDs)
		}
		return clusters[i].SignalIDs[0] < clusters[j].SignalIDs[0]
	})
	for i := range clusters {
		clusters[i].Index = i
	}
	return clusters
}

func noiseIDs(pts []point, noise []int) []string {
	ids := make([]string, 0, len(noise))
	for _, i := range noise {
		ids = append(ids, pts[i].id)
	}
	sort.Strings(ids)
	return ids
}

func meanConf(pts []point, g []int) float64 {
	if len(g) == 0 {
		return 0
	}
	var sum float64
	for _, i := range g {
		sum += pts[i].conf
	}
	return sum / float64(len(g))
}

// dominantCause returns the most frequent root cause in the group; ties
// resolve by category priority order.
func dominantCause(pts []point, g []int) model.RootCause {
	counts := make(map[model.RootCause]int)
	for _, i := range g {
		counts[pts[i].cause]++
	}
	best := model.RootCauseUnknown
	bestCount := counts[model.RootCauseUnknown]
	for _, rc := range model.RootCauses {
		if counts[rc] > bestCount || (counts[rc] == bestCount && counts[rc] > 0 && best == model.RootCauseUnknown) {
			best = rc
			bestCount = counts[rc]
		}
	}
	return best
}
