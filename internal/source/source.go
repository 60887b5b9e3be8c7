// Package source defines where signals come from. Implementations register
// themselves by name so the CLI can pick one from configuration alone.
package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
)

// Filter narrows which signals a batch run pulls in. The zero value means
// every unprocessed signal.
type Filter struct {
	Department  string
	Team        string
	MinSeverity model.Severity
	Since       time.Time
	Limit       int
	// IDs restricts the pull to the named signals regardless of their
	// processed state, used when re-clustering a known set.
	IDs []string
	// IncludeProcessed re-reads signals from earlier runs, used when
	// re-clustering a window instead of draining new input.
	IncludeProcessed bool
}

// Source is a backlog of signals awaiting analysis.
type Source interface {
	// Signals returns matching signals in a stable order.
	Signals(ctx context.Context, f Filter) ([]model.Signal, error)

	// MarkProcessed records that a run has consumed the given signals.
	MarkProcessed(ctx context.Context, ids []string) error

	Close() error
}

// Config holds implementation-specific connection settings.
type Config struct {
	DSN   string
	Extra map[string]string
}

// Constructor builds a Source from its configuration.
type Constructor func(cfg Config) (Source, error)

var registry = map[string]Constructor{}

// Register adds a source constructor under the given name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Open builds the named source.
func Open(name string, cfg Config) (Source, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown signal source: %s", name)
	}
	return ctor(cfg)
}

// Providers returns the registered source names, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
