// Package memory is an in-process hotspot store, used by the library facade
// and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/store"
)

// Store keeps hotspots in memory. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	hotspots    map[string]model.Hotspot // by ID
	byTitle     map[string]string        // title -> ID
	memberships map[string][]model.Membership
}

func New() *Store {
	return &Store{
		hotspots:    make(map[string]model.Hotspot),
		byTitle:     make(map[string]string),
		memberships: make(map[string][]model.Membership),
	}
}

func (s *Store) UpsertHotspot(ctx context.Context, h model.Hotspot) (model.Hotspot, error) {
	if err := ctx.Err(); err != nil {
		return model.Hotspot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byTitle[h.Title]; ok {
		existing := s.hotspots[id]
		existing.Summary = h.Summary
		existing.RankScore = h.RankScore
		existing.Confidence = h.Confidence
		existing.Method = h.Method
		existing.LinkedEntities = append([]string(nil), h.LinkedEntities...)
		existing.MemberCount = h.MemberCount
		existing.LastClusteredAt = h.LastClusteredAt
		s.hotspots[id] = existing
		return existing, nil
	}

	h.ID = uuid.NewString()
	if h.Status == "" {
		h.Status = model.HotspotOpen
	}
	h.LinkedEntities = append([]string(nil), h.LinkedEntities...)
	s.hotspots[h.ID] = h
	s.byTitle[h.Title] = h.ID
	return h, nil
}

func (s *Store) ReplaceMemberships(ctx context.Context, hotspotID string, ms []model.Membership) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hotspots[hotspotID]; !ok {
		return store.ErrNotFound
	}
	s.memberships[hotspotID] = append([]model.Membership(nil), ms...)
	return nil
}

func (s *Store) ListHotspots(ctx context.Context, f store.Filter) ([]model.Hotspot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Hotspot
	for _, h := range s.hotspots {
		if f.Status != "" && h.Status != f.Status {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RankScore != out[j].RankScore {
			return out[i].RankScore > out[j].RankScore
		}
		return out[i].Title < out[j].Title
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) Memberships(ctx context.Context, hotspotID string) ([]model.Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.hotspots[hotspotID]; !ok {
		return nil, store.ErrNotFound
	}
	out := append([]model.Membership(nil), s.memberships[hotspotID]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].SignalID < out[j].SignalID
	})
	return out, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.HotspotStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotspots[id]
	if !ok {
		return store.ErrNotFound
	}
	h.Status = status
	s.hotspots[id] = h
	return nil
}

func (s *Store) SetRankScore(ctx context.Context, id string, score float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hotspots[id]
	if !ok {
		return store.ErrNotFound
	}
	h.RankScore = score
	s.hotspots[id] = h
	return nil
}

func (s *Store) Close() error { return nil }
