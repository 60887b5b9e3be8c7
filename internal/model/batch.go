package model

import "time"

// RunStatus is the logical outcome of a pipeline run.
type RunStatus string

const (
	// StatusSuccess means clusters were produced. Zero hotspots is still
	// success when none met the quality gate.
	StatusSuccess           RunStatus = "SUCCESS"
	StatusInsufficientInput RunStatus = "INSUFFICIENT_INPUT"
	StatusDegraded          RunStatus = "DEGRADED"
	StatusTimeout           RunStatus = "TIMEOUT"
	StatusInternalError     RunStatus = "INTERNAL_ERROR"
)

// SignalOutcome records the per-signal result of the annotation phase.
type SignalOutcome struct {
	SignalID string `json:"signal_id"`
	// Status is "success", "error", or "skipped".
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// StageMetrics describes one clustering stage's output.
type StageMetrics struct {
	Stage    string        `json:"stage"`
	Clusters int           `json:"clusters"`
	Noise    int           `json:"noise"`
	Duration time.Duration `json:"duration"`
}

// BatchResult is the summary handed back to the caller after a run. A
// failed batch still carries whatever subset succeeded.
type BatchResult struct {
	RunID  string    `json:"run_id"`
	Status RunStatus `json:"status"`

	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Signals   []SignalOutcome `json:"signals,omitempty"`

	RootCauseCounts  map[RootCause]int `json:"root_cause_counts,omitempty"`
	AvgConfidence    float64           `json:"avg_confidence"`
	FlaggedForReview int               `json:"flagged_for_review"`

	Hotspots    []Hotspot    `json:"hotspots,omitempty"`
	Memberships []Membership `json:"memberships,omitempty"`

	Degraded bool           `json:"degraded"`
	Stages   []StageMetrics `json:"stages,omitempty"`
	Duration time.Duration  `json:"duration"`
}
