package model

// Cluster is a transient candidate grouping produced mid-pipeline. It is
// never persisted directly; it feeds membership scoring and ranking.
type Cluster struct {
	Index     int
	SignalIDs []string
	Centroid  []float64
	// Cohesion is the mean similarity of members to the centroid.
	Cohesion float64
	// Confidence is the mean classification confidence of the members.
	Confidence    float64
	DominantCause RootCause
}

// Potential is the hotspot-potential score used by the executive
// optimization gate: confidence × cohesion.
func (c Cluster) Potential() float64 {
	return c.Confidence * c.Cohesion
}

// Size returns the member count.
func (c Cluster) Size() int {
	return len(c.SignalIDs)
}
