// Package memory is an in-process signal source, used by the library facade
// and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/source"
)

func init() {
	source.Register("memory", func(source.Config) (source.Source, error) {
		return New(), nil
	})
}

// Source holds signals in memory. Safe for concurrent use.
type Source struct {
	mu        sync.RWMutex
	signals   map[string]model.Signal
	processed map[string]bool
}

func New(signals ...model.Signal) *Source {
	s := &Source{
		signals:   make(map[string]model.Signal, len(signals)),
		processed: make(map[string]bool),
	}
	s.Add(signals...)
	return s
}

// Add ingests signals. Re-adding an ID overwrites the earlier signal and
// clears its processed mark.
func (s *Source) Add(signals ...model.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sig := range signals {
		s.signals[sig.ID] = sig
		delete(s.processed, sig.ID)
	}
}

func (s *Source) Signals(ctx context.Context, f source.Filter) ([]model.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Signal
	if len(f.IDs) > 0 {
		// An explicit ID list bypasses the processed check.
		for _, id := range f.IDs {
			if sig, ok := s.signals[id]; ok && matches(sig, f) {
				out = append(out, sig)
			}
		}
	} else {
		for id, sig := range s.signals {
			if s.processed[id] && !f.IncludeProcessed {
				continue
			}
			if !matches(sig, f) {
				continue
			}
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Source) MarkProcessed(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.processed[id] = true
	}
	return nil
}

func (s *Source) Close() error { return nil }

func matches(sig model.Signal, f source.Filter) bool {
	if f.Department != "" && sig.Department != f.Department {
		return false
	}
	if f.Team != "" && sig.Team != f.Team {
		return false
	}
	if f.MinSeverity > 0 && sig.Severity < f.MinSeverity {
		return false
	}
	if !f.Since.IsZero() && sig.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}
