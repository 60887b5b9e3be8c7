// Package membership scores how strongly each signal belongs to the
// cluster it was assigned to, and bands the result for presentation.
package membership

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/crimson-sun/beacon/internal/model"
)

// Band boundaries. Strength is cosine similarity to the cluster centroid,
// clamped to [0,1]; each member is scored against its own cluster only, so
// strengths are independent of cluster count and do not sum to anything.
const (
	CoreMin       = 0.8
	PeripheralMin = 0.5
)

// Assignment is one scored cluster membership. Hotspot identity is attached
// later, once clusters have been persisted.
type Assignment struct {
	SignalID string
	Cluster  int
	Strength float64
	Band     model.Band
}

// Score computes an Assignment for every member of every cluster. Vectors
// must cover all member signals.
func Score(clusters []model.Cluster, vectors []model.FeatureVector) ([]Assignment, error) {
	byID := make(map[string]model.FeatureVector, len(vectors))
	for _, v := range vectors {
		byID[v.SignalID] = v
	}

	var out []Assignment
	for _, c := range clusters {
		for _, id := range c.SignalIDs {
			v, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("membership: no feature vector for signal %s", id)
			}
			s := strength(v.Concat(), c.Centroid)
			out = append(out, Assignment{
				SignalID: id,
				Cluster:  c.Index,
				Strength: s,
				Band:     BandFor(s),
			})
		}
	}
	return out, nil
}

// BandFor maps a strength to its presentation band.
func BandFor(s float64) model.Band {
	switch {
	case s >= CoreMin:
		return model.BandCore
	case s >= PeripheralMin:
		return model.BandPeripheral
	default:
		return model.BandOutlier
	}
}

func strength(vec, centroid []float64) float64 {
	nv := floats.Norm(vec, 2)
	nc := floats.Norm(centroid, 2)
	if nv == 0 || nc == 0 {
		return 0
	}
	s := floats.Dot(vec, centroid) / (nv * nc)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
