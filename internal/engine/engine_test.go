package engine

import (
	"context"
	"testing"
	"time"

	"github.com/crimson-sun/beacon/internal/engine/embedder"
	"github.com/crimson-sun/beacon/internal/model"
)

func TestProcess(t *testing.T) {
	eng := New(embedder.NewHashed(64))
	sig := model.Signal{
		ID:          "sig-1",
		Title:       "Approval bottleneck in change workflow",
		Description: "Manual sign-off delays every release by days",
		Severity:    model.SeverityHigh,
		Department:  "engineering",
		CreatedAt:   time.Now(),
	}

	ann, err := eng.Process(context.Background(), sig)
	if err != nil {
		t.Fatal(err)
	}
	if ann.Classification.RootCause != model.RootCauseProcess {
		t.Errorf("root cause %s, want PROCESS", ann.Classification.RootCause)
	}
	if ann.Vector.SignalID != sig.ID {
		t.Errorf("vector signal ID %q, want %q", ann.Vector.SignalID, sig.ID)
	}
	if len(ann.Vector.Embedding) != 64 {
		t.Errorf("embedding dimension %d, want 64", len(ann.Vector.Embedding))
	}
	if ann.Vector.Provider == "" {
		t.Error("vector missing provider identity")
	}
}

func TestProcessCanceled(t *testing.T) {
	eng := New(embedder.NewHashed(64))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Process(ctx, model.Signal{ID: "sig-2", Title: "anything"}); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
