// Package store persists hotspots and their memberships between runs.
package store

import (
	"context"
	"errors"

	"github.com/crimson-sun/beacon/internal/model"
)

// ErrNotFound is returned when a hotspot ID does not exist.
var ErrNotFound = errors.New("store: hotspot not found")

// Filter narrows hotspot listings.
type Filter struct {
	Status model.HotspotStatus
	Limit  int
}

// Store is the hotspot persistence layer. Hotspots are keyed by title
// across runs: a run that rediscovers a known grouping refreshes the stored
// row instead of creating a duplicate, and operator-set status survives.
type Store interface {
	// UpsertHotspot inserts h or, when a hotspot with the same title
	// exists, refreshes its run-derived fields in place. The stored row is
	// returned, which is how a fresh hotspot learns its assigned ID.
	UpsertHotspot(ctx context.Context, h model.Hotspot) (model.Hotspot, error)

	// ReplaceMemberships swaps the full membership set of one hotspot.
	ReplaceMemberships(ctx context.Context, hotspotID string, ms []model.Membership) error

	// ListHotspots returns matching hotspots ordered by rank, best first.
	ListHotspots(ctx context.Context, f Filter) ([]model.Hotspot, error)

	// Memberships returns a hotspot's members ordered by strength, then ID.
	Memberships(ctx context.Context, hotspotID string) ([]model.Membership, error)

	// SetStatus moves a hotspot through its lifecycle.
	SetStatus(ctx context.Context, id string, status model.HotspotStatus) error

	// SetRankScore records a re-ranked score without touching anything else.
	SetRankScore(ctx context.Context, id string, score float64) error

	Close() error
}
