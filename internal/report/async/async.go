// Package async decouples result publication from the caller. Useful for
// webhook destinations whose retry backoff would otherwise delay the run.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/report"
)

const (
	defaultBufferSize   = 16
	defaultDrainTimeout = 30 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 16.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner reporter's Publish
// fails. Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDrainTimeout sets how long Close waits for pending results to be
// delivered. Default: 30s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// Async wraps a report.Reporter and publishes in a background goroutine.
// Publish never blocks on the inner reporter; errors from it are passed to
// errFunc rather than propagated to the caller.
type Async struct {
	inner        report.Reporter
	ch           chan model.BatchResult
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	drainTimeout time.Duration
	closeOnce    sync.Once
}

// New wraps a reporter in an async channel-based publisher.
// The background drain goroutine starts immediately.
func New(inner report.Reporter, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async report publish error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.BatchResult, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Publish queues the result for background delivery. Blocks only when the
// buffer is full.
func (a *Async) Publish(_ context.Context, res model.BatchResult) error {
	a.ch <- res
	return nil
}

// Close waits for queued results to be delivered (bounded by the drain
// timeout), then closes the inner reporter.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			slog.Warn("async report drain timed out")
		}
		err = a.inner.Close()
	})
	return err
}

// drain delivers queued results to the inner reporter.
func (a *Async) drain() {
	defer close(a.done)
	for res := range a.ch {
		if err := a.inner.Publish(context.Background(), res); err != nil {
			a.errFunc(err)
		}
	}
}
