// Package rest pulls signals from an HTTP signal API. It is meant for
// deployments where signals are collected by a separate intake service
// and this tool runs periodically against its REST endpoint.
package rest

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/source"
)

const (
	defaultSignalsPath = "/v1/signals"
	defaultAckPath     = "/v1/signals/ack"
	defaultPageSize    = 200
	defaultTimeout     = 30 * time.Second

	// maxPages bounds pagination so a misbehaving server cannot make a
	// batch run loop forever.
	maxPages = 50
)

func init() {
	source.Register("rest", func(cfg source.Config) (source.Source, error) {
		return New(cfg)
	})
}

// Source reads signals from a paginated REST endpoint and acknowledges
// consumption via a POST. The DSN is the API base URL; Extra may carry
// "token", "signals_path", "ack_path", "page_size", and "timeout".
type Source struct {
	client      *apiClient
	signalsPath string
	ackPath     string
	pageSize    int
}

// signalDoc is the wire representation of a signal on the REST API.
type signalDoc struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Severity    string             `json:"severity"`
	Department  string             `json:"department"`
	Team        string             `json:"team"`
	Category    string             `json:"category"`
	Tags        map[string]string  `json:"tags,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type signalsResponse struct {
	Signals []signalDoc `json:"signals"`
}

type ackRequest struct {
	IDs []string `json:"ids"`
}

// New builds a REST source from its configuration.
func New(cfg source.Config) (*Source, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("rest source: missing base URL (DSN)")
	}

	s := &Source{
		signalsPath: defaultSignalsPath,
		ackPath:     defaultAckPath,
		pageSize:    defaultPageSize,
	}
	timeout := defaultTimeout
	if raw := cfg.Extra["signals_path"]; raw != "" {
		s.signalsPath = raw
	}
	if raw := cfg.Extra["ack_path"]; raw != "" {
		s.ackPath = raw
	}
	if raw := cfg.Extra["page_size"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("rest source: bad page_size %q", raw)
		}
		s.pageSize = n
	}
	if raw := cfg.Extra["timeout"]; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("rest source: bad timeout %q", raw)
		}
		timeout = d
	}
	s.client = newAPIClient(cfg.DSN, cfg.Extra["token"], timeout)
	return s, nil
}

// Signals fetches matching signals, paging through the endpoint until a
// short page or the filter limit is reached.
func (s *Source) Signals(ctx context.Context, f source.Filter) ([]model.Signal, error) {
	var out []model.Signal
	for page := 0; page < maxPages; page++ {
		q := s.query(f, page*s.pageSize)

		var resp signalsResponse
		if err := s.client.getJSON(ctx, s.signalsPath, q, &resp); err != nil {
			return nil, fmt.Errorf("rest source: %w", err)
		}

		for _, doc := range resp.Signals {
			out = append(out, doc.toSignal())
		}
		if len(resp.Signals) < s.pageSize {
			break
		}
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}

	// Same stable order as the local sources: oldest first, ID breaks ties.
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

// MarkProcessed acknowledges consumed signals on the API.
func (s *Source) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.client.postJSON(ctx, s.ackPath, ackRequest{IDs: ids}); err != nil {
		return fmt.Errorf("rest source: ack: %w", err)
	}
	return nil
}

func (s *Source) Close() error { return nil }

// query encodes the filter as URL parameters, plus paging.
func (s *Source) query(f source.Filter, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(s.pageSize))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if f.Department != "" {
		q.Set("department", f.Department)
	}
	if f.Team != "" {
		q.Set("team", f.Team)
	}
	if f.MinSeverity > 0 {
		q.Set("min_severity", f.MinSeverity.String())
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	if f.IncludeProcessed {
		q.Set("include_processed", "true")
	}
	if len(f.IDs) > 0 {
		q.Set("ids", strings.Join(f.IDs, ","))
	}
	return q
}

func (d signalDoc) toSignal() model.Signal {
	return model.Signal{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Severity:    model.ParseSeverity(d.Severity),
		Department:  d.Department,
		Team:        d.Team,
		Category:    d.Category,
		Tags:        d.Tags,
		Metrics:     d.Metrics,
		CreatedAt:   d.CreatedAt,
	}
}
