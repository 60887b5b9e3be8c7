package beacon

import (
	"context"
	"strings"
	"testing"
	"time"
)

func processSignals(n int) []Signal {
	base := time.Now().Add(-time.Hour)
	out := make([]Signal, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Signal{
			ID:          string(rune('a' + i)),
			Title:       "Approval workflow bottleneck delays releases",
			Description: "Every change waits days for manual sign-off from the review board",
			Severity:    "HIGH",
			Department:  "engineering",
			Team:        "platform",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestAnalyze(t *testing.T) {
	b, err := New(WithHashedDimension(64))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	res, err := b.Analyze(context.Background(), processSignals(8))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != "SUCCESS" {
		t.Fatalf("status %s, want SUCCESS", res.Status)
	}
	if len(res.Hotspots) == 0 {
		t.Fatal("no hotspots")
	}
	if !strings.HasPrefix(res.Hotspots[0].Title, "Process") {
		t.Errorf("title %q, want Process-led", res.Hotspots[0].Title)
	}
	if res.RootCauseCounts["PROCESS"] != 8 {
		t.Errorf("PROCESS count %d, want 8", res.RootCauseCounts["PROCESS"])
	}
	for _, m := range res.Memberships {
		switch m.Band {
		case "core", "peripheral", "outlier":
		default:
			t.Errorf("membership band %q", m.Band)
		}
	}
}

func TestAnalyzeInsufficientInput(t *testing.T) {
	b, err := New(WithHashedDimension(64))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	res, err := b.Analyze(context.Background(), processSignals(2))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != "INSUFFICIENT_INPUT" {
		t.Errorf("status %s, want INSUFFICIENT_INPUT", res.Status)
	}
}

func TestAnalyzeRejectsEmptyID(t *testing.T) {
	b, err := New(WithHashedDimension(64))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, err := b.Analyze(context.Background(), []Signal{{Title: "no id"}}); err == nil {
		t.Fatal("expected error for empty signal ID")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(WithTargetClusters(9)); err == nil {
		t.Error("target 9 accepted, want error")
	}
	if _, err := New(WithQualityThreshold(1.5)); err == nil {
		t.Error("quality 1.5 accepted, want error")
	}
	if _, err := New(WithWorkers(0)); err == nil {
		t.Error("zero workers accepted, want error")
	}
}
