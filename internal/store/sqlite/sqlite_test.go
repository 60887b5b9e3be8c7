package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/store"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hotspots.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertRoundtrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	h, err := s.UpsertHotspot(ctx, model.Hotspot{
		Title:           "Approval delays across engineering",
		Summary:         "10 signals, dominant cause PROCESS",
		RankScore:       0.71,
		Confidence:      0.88,
		Method:          "hybrid/v1",
		LinkedEntities:  []string{"release pipeline", "change board"},
		MemberCount:     10,
		LastClusteredAt: at,
	})
	if err != nil {
		t.Fatal(err)
	}
	if h.ID == "" || h.Status != model.HotspotOpen {
		t.Fatalf("bad stored row: %+v", h)
	}
	if len(h.LinkedEntities) != 2 || !h.LastClusteredAt.Equal(at) {
		t.Errorf("roundtrip mismatch: %+v", h)
	}
}

func TestUpsertByTitlePreservesStatusAndID(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	first, err := s.UpsertHotspot(ctx, model.Hotspot{Title: "T", RankScore: 0.4, LastClusteredAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetStatus(ctx, first.ID, model.HotspotApproved); err != nil {
		t.Fatal(err)
	}

	second, err := s.UpsertHotspot(ctx, model.Hotspot{Title: "T", RankScore: 0.9, MemberCount: 4, LastClusteredAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed across runs: %s then %s", first.ID, second.ID)
	}
	if second.Status != model.HotspotApproved {
		t.Errorf("status %s, want APPROVED preserved", second.Status)
	}
	if second.RankScore != 0.9 || second.MemberCount != 4 {
		t.Errorf("run-derived fields not refreshed: %+v", second)
	}
}

func TestReplaceMembershipsIdempotent(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	h, err := s.UpsertHotspot(ctx, model.Hotspot{Title: "T", LastClusteredAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	ms := []model.Membership{
		{HotspotID: h.ID, SignalID: "a", Strength: 0.9, Band: model.BandCore},
		{HotspotID: h.ID, SignalID: "b", Strength: 0.4, Band: model.BandOutlier, IsOutlier: true},
	}
	for i := 0; i < 2; i++ {
		if err := s.ReplaceMemberships(ctx, h.ID, ms); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Memberships(ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d memberships, want 2", len(got))
	}
	if got[0].SignalID != "a" || !got[1].IsOutlier {
		t.Errorf("unexpected memberships: %+v", got)
	}

	if err := s.ReplaceMemberships(ctx, "missing", ms); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListHotspotsFilterAndOrder(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var resolvedID string
	for _, h := range []model.Hotspot{
		{Title: "low", RankScore: 0.2, LastClusteredAt: now},
		{Title: "high", RankScore: 0.9, LastClusteredAt: now},
	} {
		stored, err := s.UpsertHotspot(ctx, h)
		if err != nil {
			t.Fatal(err)
		}
		if h.Title == "low" {
			resolvedID = stored.ID
		}
	}
	if err := s.SetStatus(ctx, resolvedID, model.HotspotResolved); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListHotspots(ctx, store.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "high" {
		t.Fatalf("got %v, want high ranked first", got)
	}

	got, err = s.ListHotspots(ctx, store.Filter{Status: model.HotspotOpen})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "high" {
		t.Errorf("open filter: got %v, want just high", got)
	}
}

func TestSetRankScore(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	h, err := s.UpsertHotspot(ctx, model.Hotspot{Title: "T", LastClusteredAt: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetRankScore(ctx, h.ID, 0.33); err != nil {
		t.Fatal(err)
	}
	got, err := s.ListHotspots(ctx, store.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].RankScore != 0.33 {
		t.Errorf("rank %v, want 0.33", got[0].RankScore)
	}

	if err := s.SetRankScore(ctx, "missing", 0.1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
