// Package ranker turns accepted clusters into ranked hotspot scores. The
// rank is a weighted blend of six normalized components, so the ordering
// survives changes in batch size and cluster shape.
package ranker

import (
	"fmt"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
)

// recencyWindow is how far back a hotspot still earns recency credit.
// Anything older scores zero on that component.
const recencyWindow = 7 * 24 * time.Hour

// volumeCap is the member count at which the volume component saturates.
// Fixed rather than batch-relative so rank scores stay comparable across
// runs of different sizes.
const volumeCap = 10

const weightTolerance = 1e-9

// Weights blends the six rank components. They must sum to 1 so rank
// scores stay in [0,1] and remain comparable across runs.
type Weights struct {
	Severity   float64
	Volume     float64
	Confidence float64
	Cohesion   float64
	Impact     float64
	Recency    float64
}

// DefaultWeights is the production blend: severity leads, structural
// quality follows, freshness nudges.
func DefaultWeights() Weights {
	return Weights{
		Severity:   0.25,
		Volume:     0.20,
		Confidence: 0.20,
		Cohesion:   0.15,
		Impact:     0.10,
		Recency:    0.10,
	}
}

func (w Weights) Sum() float64 {
	return w.Severity + w.Volume + w.Confidence + w.Cohesion + w.Impact + w.Recency
}

func (w Weights) Validate() error {
	for _, v := range []float64{w.Severity, w.Volume, w.Confidence, w.Cohesion, w.Impact, w.Recency} {
		if v < 0 {
			return fmt.Errorf("ranker: negative weight: %w", model.ErrInvalidOptions)
		}
	}
	if s := w.Sum(); s < 1-weightTolerance || s > 1+weightTolerance {
		return fmt.Errorf("ranker: weights sum to %g, want 1: %w", s, model.ErrInvalidOptions)
	}
	return nil
}

// Score is one cluster's rank breakdown. Every component is in [0,1].
type Score struct {
	Severity   float64
	Volume     float64
	Confidence float64
	Cohesion   float64
	Impact     float64
	Recency    float64
	Total      float64
}

// Ranker scores clusters and re-scores stored hotspots.
type Ranker struct {
	w   Weights
	now func() time.Time
}

func New(w Weights) (*Ranker, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{w: w, now: time.Now}, nil
}

// ScoreCluster ranks a freshly accepted cluster against its member signals.
// Volume saturates at volumeCap members; impact is the fraction of members
// carrying any impact metrics or tags; recency averages each member's
// decay, so one fresh signal cannot carry an otherwise stale cluster.
func (r *Ranker) ScoreCluster(c model.Cluster, members []model.Signal) Score {
	s := Score{
		Confidence: clamp01(c.Confidence),
		Cohesion:   clamp01(c.Cohesion),
		Volume:     clamp01(float64(c.Size()) / volumeCap),
	}

	if len(members) > 0 {
		var sev, rec float64
		annotated := 0
		for _, m := range members {
			sev += m.Severity.Normalized()
			rec += recency(m.CreatedAt, r.now())
			if m.HasImpactAnnotations() {
				annotated++
			}
		}
		n := float64(len(members))
		s.Severity = sev / n
		s.Impact = float64(annotated) / n
		s.Recency = rec / n
	}

	s.Total = r.w.Severity*s.Severity +
		r.w.Volume*s.Volume +
		r.w.Confidence*s.Confidence +
		r.w.Cohesion*s.Cohesion +
		r.w.Impact*s.Impact +
		r.w.Recency*s.Recency
	return s
}

// Rescore refreshes the rank of a stored hotspot without re-running the
// pipeline. Only volume, confidence, and recency survive persistence, so
// the blend renormalizes over those three weights; the relative ordering
// of stale hotspots is what callers want, not a replay of the full score.
func (r *Ranker) Rescore(h model.Hotspot) float64 {
	volume := clamp01(float64(h.MemberCount) / volumeCap)
	raw := r.w.Volume*volume +
		r.w.Confidence*clamp01(h.Confidence) +
		r.w.Recency*recency(h.LastClusteredAt, r.now())
	avail := r.w.Volume + r.w.Confidence + r.w.Recency
	if avail == 0 {
		return 0
	}
	return raw / avail
}

// recency decays linearly from 1 at now to 0 at the window edge.
func recency(at time.Time, now time.Time) float64 {
	if at.IsZero() {
		return 0
	}
	age := now.Sub(at)
	if age < 0 {
		age = 0
	}
	if age >= recencyWindow {
		return 0
	}
	return 1 - float64(age)/float64(recencyWindow)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
