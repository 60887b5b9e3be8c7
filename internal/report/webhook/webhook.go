// Package webhook POSTs batch results to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/report"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
)

// Option configures a webhook Reporter.
type Option func(*Reporter)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(r *Reporter) { r.headers = h }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) { r.client.Timeout = d }
}

// Reporter POSTs each batch result to an HTTP endpoint as a JSON object.
// Retries on 5xx with exponential backoff; 4xx responses fail immediately.
type Reporter struct {
	client    *http.Client
	url       string
	headers   map[string]string
	verbosity report.Verbosity
}

// New creates a webhook reporter targeting the given URL.
func New(url string, verbosity report.Verbosity, opts ...Option) *Reporter {
	r := &Reporter{
		client:    &http.Client{Timeout: defaultTimeout},
		url:       url,
		verbosity: verbosity,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish sends the trimmed result as a single POST.
func (r *Reporter) Publish(ctx context.Context, res model.BatchResult) error {
	body, err := json.Marshal(report.Trim(res, r.verbosity))
	if err != nil {
		return fmt.Errorf("webhook report: marshal: %w", err)
	}
	return r.postWithRetry(ctx, body)
}

func (r *Reporter) Close() error {
	return nil
}

// postWithRetry sends the body via HTTP POST with retry on 5xx.
func (r *Reporter) postWithRetry(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(time.Duration(1<<(attempt-1)) * time.Second)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook report: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range r.headers {
			req.Header.Set(k, v)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook report: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("webhook report: HTTP %d", resp.StatusCode)

		// Only retry on 5xx server errors.
		if resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}
