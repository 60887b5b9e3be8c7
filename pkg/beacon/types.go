package beacon

import (
	"time"

	"github.com/crimson-sun/beacon/internal/model"
)

// Signal is one reported observation to analyze.
type Signal struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	// Severity is LOW, MEDIUM, HIGH, or CRITICAL. Unknown values are
	// treated as MEDIUM.
	Severity   string             `json:"severity,omitempty"`
	Department string             `json:"department,omitempty"`
	Team       string             `json:"team,omitempty"`
	Category   string             `json:"category,omitempty"`
	Tags       map[string]string  `json:"tags,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	CreatedAt  time.Time          `json:"created_at,omitempty"`
}

// Hotspot is a ranked grouping of related signals.
// This is the stable public type — internal representations may evolve
// independently without breaking consumers.
type Hotspot struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	Status         string    `json:"status"`
	RankScore      float64   `json:"rank_score"`
	Confidence     float64   `json:"confidence"`
	Method         string    `json:"method"`
	LinkedEntities []string  `json:"linked_entities,omitempty"`
	MemberCount    int       `json:"member_count"`
	ClusteredAt    time.Time `json:"clustered_at"`
}

// Membership links a signal to its hotspot with a strength band.
type Membership struct {
	HotspotID string  `json:"hotspot_id"`
	SignalID  string  `json:"signal_id"`
	Strength  float64 `json:"strength"`
	// Band is "core", "peripheral", or "outlier".
	Band string `json:"band"`
}

// Result summarizes one analysis batch.
type Result struct {
	// Status is SUCCESS, INSUFFICIENT_INPUT, DEGRADED, TIMEOUT, or
	// INTERNAL_ERROR.
	Status string `json:"status"`

	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// RootCauseCounts maps root cause categories to signal counts.
	RootCauseCounts  map[string]int `json:"root_cause_counts,omitempty"`
	AvgConfidence    float64        `json:"avg_confidence"`
	FlaggedForReview int            `json:"flagged_for_review"`

	Hotspots    []Hotspot    `json:"hotspots,omitempty"`
	Memberships []Membership `json:"memberships,omitempty"`

	// Degraded reports that clustering fell back to a cheaper method
	// under time pressure.
	Degraded bool          `json:"degraded"`
	Duration time.Duration `json:"duration"`
}

func toInternalSignal(s Signal) model.Signal {
	return model.Signal{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Severity:    model.ParseSeverity(s.Severity),
		Department:  s.Department,
		Team:        s.Team,
		Category:    s.Category,
		Tags:        s.Tags,
		Metrics:     s.Metrics,
		CreatedAt:   s.CreatedAt,
	}
}

func fromInternalResult(r *model.BatchResult) *Result {
	out := &Result{
		Status:           string(r.Status),
		Processed:        r.Processed,
		Succeeded:        r.Succeeded,
		Failed:           r.Failed,
		AvgConfidence:    r.AvgConfidence,
		FlaggedForReview: r.FlaggedForReview,
		Degraded:         r.Degraded,
		Duration:         r.Duration,
	}
	if len(r.RootCauseCounts) > 0 {
		out.RootCauseCounts = make(map[string]int, len(r.RootCauseCounts))
		for rc, n := range r.RootCauseCounts {
			out.RootCauseCounts[string(rc)] = n
		}
	}
	for _, h := range r.Hotspots {
		out.Hotspots = append(out.Hotspots, Hotspot{
			ID:             h.ID,
			Title:          h.Title,
			Summary:        h.Summary,
			Status:         string(h.Status),
			RankScore:      h.RankScore,
			Confidence:     h.Confidence,
			Method:         h.Method,
			LinkedEntities: h.LinkedEntities,
			MemberCount:    h.MemberCount,
			ClusteredAt:    h.LastClusteredAt,
		})
	}
	for _, m := range r.Memberships {
		out.Memberships = append(out.Memberships, Membership{
			HotspotID: m.HotspotID,
			SignalID:  m.SignalID,
			Strength:  m.Strength,
			Band:      string(m.Band),
		})
	}
	return out
}
