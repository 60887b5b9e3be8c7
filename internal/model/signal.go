package model

import (
	"strings"
	"time"
)

// Severity is the ordinal severity declared on a signal at ingestion.
type Severity int

const (
	SeverityLow      Severity = 1
	SeverityMedium   Severity = 2
	SeverityHigh     Severity = 3
	SeverityCritical Severity = 4
)

// ParseSeverity converts a stored severity string to its ordinal.
// Unknown strings default to SeverityMedium.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return SeverityLow
	case "MEDIUM":
		return SeverityMedium
	case "HIGH":
		return SeverityHigh
	case "CRITICAL":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "MEDIUM"
	}
}

// Normalized maps the ordinal onto [0,1].
func (s Severity) Normalized() float64 {
	if s < SeverityLow {
		s = SeverityLow
	}
	if s > SeverityCritical {
		s = SeverityCritical
	}
	return float64(s) / float64(SeverityCritical)
}

// Signal is a single reported observation ingested into the system.
// Signals are immutable at ingestion; the pipeline only attaches derived
// annotations (classification, feature vector, membership) and never
// rewrites the reported fields.
type Signal struct {
	ID          string
	Title       string
	Description string
	Severity    Severity
	Department  string
	Team        string
	Category    string
	Tags        map[string]string
	Metrics     map[string]float64
	CreatedAt   time.Time
}

// Text returns the concatenated free text used for classification and
// embedding.
func (s Signal) Text() string {
	if s.Description == "" {
		return s.Title
	}
	return s.Title + " " + s.Description
}

// HasImpactAnnotations reports whether the signal carries any business
// impact metrics or tags.
func (s Signal) HasImpactAnnotations() bool {
	return len(s.Metrics) > 0 || len(s.Tags) > 0
}
