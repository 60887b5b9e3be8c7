// Package stdout prints batch results as JSON on standard output.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/report"
)

// Reporter writes JSON-encoded batch results to stdout.
type Reporter struct {
	enc       *json.Encoder
	verbosity report.Verbosity
}

// New creates a stdout Reporter with verbosity-aware field omission
// and optional pretty-printed JSON.
func New(verbosity report.Verbosity, pretty bool) *Reporter {
	return NewWriter(os.Stdout, verbosity, pretty)
}

// NewWriter is New with an explicit destination, used by tests.
func NewWriter(w io.Writer, verbosity report.Verbosity, pretty bool) *Reporter {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Reporter{enc: enc, verbosity: verbosity}
}

func (r *Reporter) Publish(_ context.Context, res model.BatchResult) error {
	if err := r.enc.Encode(report.Trim(res, r.verbosity)); err != nil {
		return fmt.Errorf("stdout report: %w", err)
	}
	return nil
}

func (r *Reporter) Close() error {
	return nil
}
