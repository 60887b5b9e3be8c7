package model

import "time"

// RootCause is the fixed category enumeration assigned by the domain
// classifier.
type RootCause string

const (
	RootCauseProcess       RootCause = "PROCESS"
	RootCauseResource      RootCause = "RESOURCE"
	RootCauseCommunication RootCause = "COMMUNICATION"
	RootCauseTechnology    RootCause = "TECHNOLOGY"
	RootCauseTraining      RootCause = "TRAINING"
	RootCauseQuality       RootCause = "QUALITY"
	RootCauseUnknown       RootCause = "UNKNOWN"
)

// RootCauses lists the classifiable categories in tie-break priority order.
// PROCESS sits first: it is the most common category in practice and wins
// ties by policy rather than by random selection. UNKNOWN is deliberately
// absent — it is a fallback, never a winner.
var RootCauses = []RootCause{
	RootCauseProcess,
	RootCauseResource,
	RootCauseCommunication,
	RootCauseTechnology,
	RootCauseTraining,
	RootCauseQuality,
}

// RootCauseIndex returns the position of a cause within RootCauses, or -1
// for UNKNOWN and unrecognized values.
func RootCauseIndex(rc RootCause) int {
	for i, c := range RootCauses {
		if c == rc {
			return i
		}
	}
	return -1
}

// BusinessContext is the context bundle extracted alongside the root cause.
type BusinessContext struct {
	ProjectPhase       string
	DepartmentPriority string
	// Urgency is the effective urgency level: the declared severity,
	// possibly upgraded by content keywords, never downgraded.
	Urgency Severity
}

// Classification is the domain classifier's output for one signal.
// Re-running classification overwrites the previous record.
type Classification struct {
	SignalID   string
	RootCause  RootCause
	Confidence float64
	Context    BusinessContext
	// NeedsReview flags low-confidence classifications for optional
	// escalation to a heavier process. Advisory only; it never blocks
	// the pipeline.
	NeedsReview  bool
	ClassifiedAt time.Time
}
