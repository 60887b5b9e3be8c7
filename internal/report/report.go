// Package report publishes batch results to configured destinations.
package report

import (
	"context"
	"fmt"

	"github.com/crimson-sun/beacon/internal/model"
)

// Verbosity controls how much of a batch result a reporter emits.
type Verbosity int

const (
	// Minimal keeps run counters and hotspots only.
	Minimal Verbosity = iota
	// Standard adds memberships and clustering stage metrics.
	Standard
	// Full adds per-signal annotation outcomes.
	Full
)

// ParseVerbosity converts a config string to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch s {
	case "minimal":
		return Minimal, nil
	case "standard", "":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return Standard, fmt.Errorf("unknown verbosity %q", s)
	}
}

// Reporter delivers finished batch results to a destination.
type Reporter interface {
	Publish(ctx context.Context, res model.BatchResult) error
	Close() error
}

// Trim returns a copy of the result with fields stripped according to
// verbosity. Counters, hotspots, and the run status are always kept.
func Trim(res model.BatchResult, v Verbosity) model.BatchResult {
	switch v {
	case Minimal:
		res.Signals = nil
		res.Memberships = nil
		res.Stages = nil
	case Standard:
		res.Signals = nil
	}
	return res
}
