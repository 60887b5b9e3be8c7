// Package classifier assigns each signal a root-cause category and business
// context via weighted keyword rules. Classification is total: any input,
// including empty text, yields a result.
package classifier

import (
	"math"
	"strings"
	"time"

	"github.com/crimson-sun/beacon/internal/model"
)

const (
	// EnhancementThreshold is the confidence below which a classification
	// is flagged for review. Advisory; never blocks the pipeline.
	EnhancementThreshold = 0.6

	// UnknownConfidence is assigned when no rule matches at all.
	UnknownConfidence = 0.3

	// tieEpsilon: raw scores this close count as a tie, and ties keep the
	// higher-priority rule (PROCESS first) rather than a coin flip.
	tieEpsilon = 0.02
)

// rule holds one root-cause category's weighted keyword list. Rules are
// evaluated in slice order and ties keep the earlier rule, so the table
// order is the tie-break priority order.
type rule struct {
	cause    model.RootCause
	keywords map[string]float64
}

var rules = []rule{
	{model.RootCauseProcess, map[string]float64{
		"approval":    1.0,
		"workflow":    1.0,
		"process":     0.9,
		"handoff":     0.9,
		"bottleneck":  0.9,
		"procedure":   0.8,
		"delay":       0.8,
		"sign-off":    0.8,
		"manual step": 0.8,
		"paperwork":   0.7,
		"red tape":    0.7,
	}},
	{model.RootCauseResource, map[string]float64{
		"staffing":      1.0,
		"headcount":     1.0,
		"understaffed":  1.0,
		"shortage":      0.9,
		"capacity":      0.9,
		"overallocated": 0.9,
		"budget":        0.8,
		"funding":       0.8,
		"equipment":     0.7,
		"resource":      0.7,
	}},
	{model.RootCauseCommunication, map[string]float64{
		"communication": 1.0,
		"misalign":      0.9,
		"not informed":  0.9,
		"silo":          0.9,
		"unclear":       0.8,
		"no response":   0.8,
		"escalation":    0.7,
		"stakeholder":   0.7,
		"meeting":       0.6,
	}},
	{model.RootCauseTechnology, map[string]float64{
		"outage":      1.0,
		"crash":       1.0,
		"server":      0.9,
		"database":    0.9,
		"bug":         0.9,
		"latency":     0.9,
		"deploy":      0.8,
		"integration": 0.8,
		"api":         0.8,
		"software":    0.7,
		"system":      0.6,
	}},
	{model.RootCauseTraining, map[string]float64{
		"training":       1.0,
		"onboarding":     0.9,
		"learning curve": 0.9,
		"inexperienced":  0.9,
		"knowledge gap":  0.9,
		"skill":          0.8,
		"mentoring":      0.8,
		"documentation":  0.7,
	}},
	{model.RootCauseQuality, map[string]float64{
		"defect":        1.0,
		"rework":        0.9,
		"quality":       0.9,
		"nonconform":    0.9,
		"failed review": 0.8,
		"scrap":         0.8,
		"inspection":    0.7,
		"tolerance":     0.7,
		"audit":         0.7,
	}},
}

// Classifier evaluates the fixed rule table against signal text.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// ruleScore is one rule's evaluation against a text.
type ruleScore struct {
	cause   model.RootCause
	raw     float64
	matched int
}

// Classify assigns a root cause and business context to the signal. It
// never fails: empty or unmatchable text classifies to UNKNOWN with a
// fixed low confidence.
func (c *Classifier) Classify(sig model.Signal) model.Classification {
	text := strings.ToLower(strings.TrimSpace(sig.Text()))

	cls := model.Classification{
		SignalID:     sig.ID,
		RootCause:    model.RootCauseUnknown,
		Confidence:   UnknownConfidence,
		ClassifiedAt: time.Now().UTC(),
	}
	cls.Context = extractContext(sig, text)

	if text == "" {
		cls.NeedsReview = true
		return cls
	}

	scores := make([]ruleScore, 0, len(rules))
	for _, r := range rules {
		scores = append(scores, score(r, text))
	}

	// Highest raw score wins; ties keep the earlier rule (PROCESS first).
	best, runnerUp := scores[0], ruleScore{}
	for _, s := range scores[1:] {
		switch {
		case s.raw > best.raw+tieEpsilon:
			runnerUp = best
			best = s
		case s.raw > runnerUp.raw:
			runnerUp = s
		}
	}

	if best.raw == 0 {
		cls.NeedsReview = true
		return cls
	}

	cls.RootCause = best.cause
	cls.Confidence = confidence(best, runnerUp)
	cls.NeedsReview = cls.Confidence < EnhancementThreshold
	return cls
}

// score evaluates one rule: coverage of the rule's keyword weight mass,
// boosted by match diversity.
func score(r rule, text string) ruleScore {
	var matchedWeight, totalWeight float64
	var matched int
	for kw, w := range r.keywords {
		totalWeight += w
		if strings.Contains(text, kw) {
			matchedWeight += w
			matched++
		}
	}
	if matched == 0 {
		return ruleScore{cause: r.cause}
	}
	coverage := matchedWeight / totalWeight
	diversity := math.Min(1, float64(matched)/4)
	return ruleScore{
		cause:   r.cause,
		raw:     0.6*coverage + 0.4*diversity,
		matched: matched,
	}
}

// confidence is monotonic in the winner's margin over the runner-up and in
// absolute match density, clamped to [0,1].
func confidence(best, runnerUp ruleScore) float64 {
	// A tie-broken winner can sit marginally below the runner-up; the
	// margin term floors at zero so the confidence stays monotonic.
	margin := math.Max(0, best.raw-runnerUp.raw)
	density := math.Min(1, float64(best.matched)/5)
	return clamp01(0.45 + 0.3*margin + 0.25*density)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
