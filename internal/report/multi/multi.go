// Package multi fans batch results out to several reporters.
package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/report"
)

// Multi fans results out to multiple report.Reporter implementations.
// Each Publish delivers the result to every wrapped reporter sequentially.
// If one reporter fails, the remaining reporters still receive the result.
type Multi struct {
	reporters []report.Reporter
}

// New creates a Multi that fans out to the given reporters.
func New(reporters ...report.Reporter) *Multi {
	return &Multi{reporters: reporters}
}

// Publish delivers the result to every wrapped reporter. Errors are
// collected but do not prevent delivery to subsequent reporters.
func (m *Multi) Publish(ctx context.Context, res model.BatchResult) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Publish(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped reporter, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
