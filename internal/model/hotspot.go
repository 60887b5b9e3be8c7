package model

import "time"

// HotspotStatus is the lifecycle state of a persisted hotspot. Hotspots are
// never silently deleted; status transitions retire them.
type HotspotStatus string

const (
	HotspotOpen     HotspotStatus = "OPEN"
	HotspotApproved HotspotStatus = "APPROVED"
	HotspotResolved HotspotStatus = "RESOLVED"
	HotspotArchived HotspotStatus = "ARCHIVED"
)

// Hotspot is the externally visible outcome of a clustering run: a ranked
// grouping of related signals. Upserted by title on every run.
type Hotspot struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Summary    string        `json:"summary"`
	Status     HotspotStatus `json:"status"`
	RankScore  float64       `json:"rank_score"`
	Confidence float64       `json:"confidence"`
	// Method records the clustering method and version that produced
	// this hotspot.
	Method string `json:"method"`
	// LinkedEntities are recurring named items extracted from the member
	// signals.
	LinkedEntities  []string  `json:"linked_entities,omitempty"`
	MemberCount     int       `json:"member_count"`
	LastClusteredAt time.Time `json:"last_clustered_at"`
}

// Band is the membership-strength band of a signal inside its hotspot.
type Band string

const (
	BandCore       Band = "core"
	BandPeripheral Band = "peripheral"
	BandOutlier    Band = "outlier"
)

// Membership links a signal to the hotspot it was grouped into. Strengths
// are independent per-signal confidences; they do not sum to 1 within a
// hotspot. Memberships for a hotspot are replaced wholesale each run.
type Membership struct {
	HotspotID string  `json:"hotspot_id"`
	SignalID  string  `json:"signal_id"`
	Strength  float64 `json:"strength"`
	Band      Band    `json:"band"`
	IsOutlier bool    `json:"is_outlier"`
}
