package model

import "time"

// FeatureVector is the fixed-layout numeric representation of a signal.
// Sub-vectors keep their own fields so downstream stages can score on a
// slice of the feature space; Concat produces the full vector in a stable
// order. Exactly one current vector exists per signal; regeneration
// supersedes the previous one.
type FeatureVector struct {
	SignalID string

	// Domain is a one-hot encoding over RootCauses (length 6).
	Domain []float64
	// SoftScores gives every category a baseline weight with the winner
	// boosted, so near-categories remain detectable by similarity.
	SoftScores []float64
	// OrgContext holds presence and identity indicators for
	// department/team/category (length 6).
	OrgContext []float64
	// Urgency holds the severity scalar and two damped copies (length 3).
	Urgency []float64
	// Embedding is the provider's L2-normalized semantic vector.
	Embedding []float32

	TermDensity float64
	Complexity  float64

	Impact            float64
	Actionability     float64
	StrategicPriority float64

	// Provider records the embedding provider identity. Vectors from
	// different providers must never be compared.
	Provider string
	// Confidence is inherited from the upstream classification.
	Confidence  float64
	GeneratedAt time.Time
}

// Concat returns the full feature vector: domain, soft scores, org context,
// urgency, embedding, scalars, business impact — in that order.
func (v FeatureVector) Concat() []float64 {
	out := make([]float64, 0, len(v.Domain)+len(v.SoftScores)+len(v.OrgContext)+len(v.Urgency)+len(v.Embedding)+5)
	out = append(out, v.Domain...)
	out = append(out, v.SoftScores...)
	out = append(out, v.OrgContext...)
	out = append(out, v.Urgency...)
	for _, e := range v.Embedding {
		out = append(out, float64(e))
	}
	out = append(out, v.TermDensity, v.Complexity)
	out = append(out, v.Impact, v.Actionability, v.StrategicPriority)
	return out
}

// Semantic returns the sub-vector used by the semantic refinement stage:
// the embedding plus the domain soft scores.
func (v FeatureVector) Semantic() []float64 {
	out := make([]float64, 0, len(v.Embedding)+len(v.SoftScores))
	for _, e := range v.Embedding {
		out = append(out, float64(e))
	}
	out = append(out, v.SoftScores...)
	return out
}
