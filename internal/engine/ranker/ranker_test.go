package ranker

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newFixed(t *testing.T, w Weights) *Ranker {
	t.Helper()
	r, err := New(w)
	if err != nil {
		t.Fatal(err)
	}
	r.now = fixedNow
	return r
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	if math.Abs(w.Sum()-1) > weightTolerance {
		t.Fatalf("default weights sum to %g, want 1", w.Sum())
	}
	if err := w.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	w := DefaultWeights()
	w.Severity = 0.5
	if err := w.Validate(); !errors.Is(err, model.ErrInvalidOptions) {
		t.Errorf("sum 1.25: got %v, want ErrInvalidOptions", err)
	}
	w = DefaultWeights()
	w.Recency = -0.1
	if err := w.Validate(); !errors.Is(err, model.ErrInvalidOptions) {
		t.Errorf("negative weight: got %v, want ErrInvalidOptions", err)
	}
}

func TestScoreClusterComponents(t *testing.T) {
	r := newFixed(t, DefaultWeights())

	members := []model.Signal{
		{ID: "a", Severity: model.SeverityCritical, CreatedAt: fixedNow().Add(-24 * time.Hour)},
		{ID: "b", Severity: model.SeverityHigh, Metrics: map[string]float64{"impact": 0.9},
			CreatedAt: fixedNow().Add(-48 * time.Hour)},
	}
	c := model.Cluster{SignalIDs: []string{"a", "b"}, Cohesion: 0.9, Confidence: 0.8}

	s := r.ScoreCluster(c, members)

	// Two members against a ten-member cap.
	if got, want := s.Volume, 0.2; math.Abs(got-want) > 1e-9 {
		t.Errorf("volume %.3f, want %.3f", got, want)
	}
	if got, want := s.Severity, (1.0+0.75)/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("severity %.3f, want %.3f", got, want)
	}
	// One of two members carries impact annotations.
	if got, want := s.Impact, 0.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("impact %.3f, want %.3f", got, want)
	}
	// One day and two days into a seven-day window, averaged.
	if got, want := s.Recency, ((1-1.0/7)+(1-2.0/7))/2; math.Abs(got-want) > 1e-9 {
		t.Errorf("recency %.3f, want %.3f", got, want)
	}
	if s.Total <= 0 || s.Total > 1 {
		t.Errorf("total %.3f outside (0,1]", s.Total)
	}

	want := 0.25*s.Severity + 0.20*s.Volume + 0.20*s.Confidence + 0.15*s.Cohesion + 0.10*s.Impact + 0.10*s.Recency
	if math.Abs(s.Total-want) > 1e-9 {
		t.Errorf("total %.6f, want weighted blend %.6f", s.Total, want)
	}
}

func TestScoreClusterStaleRecency(t *testing.T) {
	r := newFixed(t, DefaultWeights())
	members := []model.Signal{
		{ID: "a", Severity: model.SeverityLow, CreatedAt: fixedNow().Add(-30 * 24 * time.Hour)},
	}
	s := r.ScoreCluster(model.Cluster{SignalIDs: []string{"a"}}, members)
	if s.Recency != 0 {
		t.Errorf("recency %.3f for month-old signals, want 0", s.Recency)
	}

	// One fresh member does not carry the cluster: the decay averages
	// per member, so a fresh/stale pair lands at half credit.
	mixed := append(members, model.Signal{ID: "b", Severity: model.SeverityLow, CreatedAt: fixedNow()})
	s = r.ScoreCluster(model.Cluster{SignalIDs: []string{"a", "b"}}, mixed)
	if got, want := s.Recency, 0.5; math.Abs(got-want) > 1e-9 {
		t.Errorf("mixed recency %.3f, want %.3f", got, want)
	}
}

func TestScoreClusterVolumeSaturates(t *testing.T) {
	r := newFixed(t, DefaultWeights())

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	if s := r.ScoreCluster(model.Cluster{SignalIDs: ids}, nil); s.Volume != 1 {
		t.Errorf("12-member volume %.3f, want 1", s.Volume)
	}
	if s := r.ScoreCluster(model.Cluster{SignalIDs: ids[:5]}, nil); s.Volume != 0.5 {
		t.Errorf("5-member volume %.3f, want 0.5", s.Volume)
	}
}

func TestScoreClusterImpactPresence(t *testing.T) {
	r := newFixed(t, DefaultWeights())
	at := fixedNow().Add(-time.Hour)
	c := model.Cluster{SignalIDs: []string{"a", "b"}}

	// Severity never stands in for impact: critical members without
	// annotations still score zero on that component.
	bare := []model.Signal{
		{ID: "a", Severity: model.SeverityCritical, CreatedAt: at},
		{ID: "b", Severity: model.SeverityCritical, CreatedAt: at},
	}
	if s := r.ScoreCluster(c, bare); s.Impact != 0 {
		t.Errorf("unannotated impact %.3f, want 0", s.Impact)
	}

	annotated := []model.Signal{
		{ID: "a", Severity: model.SeverityLow, CreatedAt: at, Metrics: map[string]float64{"revenue_at_risk": 12000}},
		{ID: "b", Severity: model.SeverityLow, CreatedAt: at, Tags: map[string]string{"customer": "acme"}},
	}
	if s := r.ScoreCluster(c, annotated); s.Impact != 1 {
		t.Errorf("fully annotated impact %.3f, want 1", s.Impact)
	}
}

func TestScoreClusterOrdersBySeverity(t *testing.T) {
	r := newFixed(t, DefaultWeights())
	at := fixedNow().Add(-time.Hour)

	critical := []model.Signal{
		{ID: "a", Severity: model.SeverityCritical, CreatedAt: at},
		{ID: "b", Severity: model.SeverityCritical, CreatedAt: at},
	}
	low := []model.Signal{
		{ID: "c", Severity: model.SeverityLow, CreatedAt: at},
		{ID: "d", Severity: model.SeverityLow, CreatedAt: at},
	}
	c := model.Cluster{SignalIDs: []string{"x", "y"}, Cohesion: 0.8, Confidence: 0.8}

	hi := r.ScoreCluster(c, critical)
	lo := r.ScoreCluster(c, low)
	if hi.Total <= lo.Total {
		t.Errorf("critical cluster ranked %.3f, below low-severity %.3f", hi.Total, lo.Total)
	}
}

func TestRescore(t *testing.T) {
	r := newFixed(t, DefaultWeights())

	fresh := model.Hotspot{MemberCount: 8, Confidence: 0.9, LastClusteredAt: fixedNow().Add(-time.Hour)}
	stale := model.Hotspot{MemberCount: 8, Confidence: 0.9, LastClusteredAt: fixedNow().Add(-14 * 24 * time.Hour)}

	got := r.Rescore(fresh)
	if got <= r.Rescore(stale) {
		t.Error("fresh hotspot did not outrank stale one")
	}
	if got <= 0 || got > 1 {
		t.Errorf("rescore %.3f outside (0,1]", got)
	}

	if v := r.Rescore(model.Hotspot{}); v != 0 {
		t.Errorf("empty hotspot rescored %.3f, want 0", v)
	}
}
