package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/report"
)

func testResult(runID string) model.BatchResult {
	return model.BatchResult{
		RunID:     runID,
		Status:    model.StatusSuccess,
		Processed: 3,
		Hotspots:  []model.Hotspot{{ID: "h1", Title: "Process: approvals"}},
	}
}

func TestPublishAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.ndjson")
	r, err := New(path, report.Standard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, id := range []string{"r1", "r2"} {
		if err := r.Publish(context.Background(), testResult(id)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var res model.BatchResult
		if err := json.Unmarshal(sc.Bytes(), &res); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		ids = append(ids, res.RunID)
	}
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
		t.Errorf("run IDs = %v, want [r1 r2]", ids)
	}
}

func TestPublishAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.ndjson")

	for _, id := range []string{"r1", "r2"} {
		r, err := New(path, report.Standard)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := r.Publish(context.Background(), testResult(id)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		r.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := countLines(data); n != 2 {
		t.Errorf("got %d lines, want 2 (append, not truncate)", n)
	}
}

func TestRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.ndjson")
	r, err := New(path, report.Minimal, WithMaxSize(120))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := r.Publish(context.Background(), testResult("rot")); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotated file %s.1: %v", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat current: %v", err)
	}
	if info.Size() == 0 {
		t.Error("current file should hold the latest results")
	}
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
