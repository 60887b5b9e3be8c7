// Package features converts classified signals into fixed-layout feature
// vectors. Generation is deterministic: identical signal, classification,
// and provider identity always produce the identical vector.
package features

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/crimson-sun/beacon/internal/engine/embedder"
	"github.com/crimson-sun/beacon/internal/model"
)

const (
	// softBaseline and softWinner keep the domain encoding soft: every
	// category carries a floor weight so near-categories stay visible to
	// downstream similarity.
	softBaseline = 0.1
	softWinner   = 0.8

	// urgencyDamp1 and urgencyDamp2 are the damped copies of the urgency
	// scalar, soft proxies for temporal decay.
	urgencyDamp1 = 0.8
	urgencyDamp2 = 0.6

	// priorityBonus is added to actionability when the department priority
	// is project management, and to strategic priority at critical urgency.
	priorityBonus = 0.2
)

// domainTerms is the organizational vocabulary behind the terminology
// density scalar.
var domainTerms = []string{
	"approval", "workflow", "deadline", "milestone", "stakeholder",
	"budget", "resource", "capacity", "escalation", "handoff",
	"deliverable", "scope", "requirement", "backlog", "dependency",
	"outage", "incident", "defect", "rework", "audit",
	"compliance", "vendor", "procurement", "onboarding", "training",
	"documentation", "retrospective", "roadmap", "sprint", "release",
}

// densityScale is the matched-term count at which density saturates.
const densityScale = 10

// causeImpact, causeActionability, and causeStrategic are fixed
// category-to-score lookup tables.
var causeImpact = map[model.RootCause]float64{
	model.RootCauseProcess:       0.7,
	model.RootCauseResource:      0.6,
	model.RootCauseCommunication: 0.5,
	model.RootCauseTechnology:    0.8,
	model.RootCauseTraining:      0.4,
	model.RootCauseQuality:       0.7,
	model.RootCauseUnknown:       0.3,
}

var causeActionability = map[model.RootCause]float64{
	model.RootCauseProcess:       0.8,
	model.RootCauseResource:      0.5,
	model.RootCauseCommunication: 0.7,
	model.RootCauseTechnology:    0.6,
	model.RootCauseTraining:      0.9,
	model.RootCauseQuality:       0.7,
	model.RootCauseUnknown:       0.3,
}

var causeStrategic = map[model.RootCause]float64{
	model.RootCauseProcess:       0.6,
	model.RootCauseResource:      0.7,
	model.RootCauseCommunication: 0.5,
	model.RootCauseTechnology:    0.8,
	model.RootCauseTraining:      0.4,
	model.RootCauseQuality:       0.7,
	model.RootCauseUnknown:       0.3,
}

// Engineer builds feature vectors using the configured embedding provider.
type Engineer struct {
	provider embedder.Provider
}

// New creates an Engineer.
func New(provider embedder.Provider) *Engineer {
	return &Engineer{provider: provider}
}

// Build derives the feature vector for one classified signal.
func (e *Engineer) Build(ctx context.Context, sig model.Signal, cls model.Classification) (model.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return model.FeatureVector{}, err
	}
	emb, err := e.provider.Embed(ctx, sig.Text())
	if err != nil {
		return model.FeatureVector{}, fmt.Errorf("features: embed %s: %w", sig.ID, err)
	}

	text := strings.ToLower(sig.Text())
	u := cls.Context.Urgency.Normalized()

	vec := model.FeatureVector{
		SignalID:   sig.ID,
		Domain:     oneHot(cls.RootCause),
		SoftScores: softScores(cls.RootCause),
		OrgContext: orgContext(sig),
		Urgency:    []float64{u, u * urgencyDamp1, u * urgencyDamp2},
		Embedding:  emb,

		TermDensity: termDensity(text),
		Complexity:  complexity(sig.Text()),

		Impact:            (sig.Severity.Normalized() + causeImpact[cls.RootCause]) / 2,
		Actionability:     actionability(cls),
		StrategicPriority: strategic(cls),

		Provider:    e.provider.Identity(),
		Confidence:  cls.Confidence,
		GeneratedAt: time.Now().UTC(),
	}
	return vec, nil
}

// oneHot encodes the winning category over RootCauses. UNKNOWN encodes to
// all zeros.
func oneHot(rc model.RootCause) []float64 {
	out := make([]float64, len(model.RootCauses))
	if i := model.RootCauseIndex(rc); i >= 0 {
		out[i] = 1
	}
	return out
}

// softScores gives every category the baseline weight and the winner the
// boosted weight.
func softScores(rc model.RootCause) []float64 {
	out := make([]float64, len(model.RootCauses))
	for i := range out {
		out[i] = softBaseline
	}
	if i := model.RootCauseIndex(rc); i >= 0 {
		out[i] = softWinner
	}
	return out
}

// orgContext encodes presence and a stable identity hash for department,
// team, and category.
func orgContext(sig model.Signal) []float64 {
	return []float64{
		presence(sig.Department),
		presence(sig.Team),
		presence(sig.Category),
		identity(sig.Department),
		identity(sig.Team),
		identity(sig.Category),
	}
}

func presence(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	return 1
}

// identity maps a name to a stable value in (0,1]; empty maps to 0.
func identity(s string) float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(s))
	return float64(h.Sum32()%1000+1) / 1000
}

// termDensity counts distinct domain terms in the text, saturating at
// densityScale matches.
func termDensity(text string) float64 {
	var matched int
	for _, term := range domainTerms {
		if strings.Contains(text, term) {
			matched++
		}
	}
	return math.Min(1, float64(matched)/densityScale)
}

// complexity is word count over sentence count × 10, capped at 1. A crude
// proxy for how much structure the reporter packed into the text.
func complexity(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	sentences := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if sentences == 0 {
		sentences = 1
	}
	return math.Min(1, float64(words)/(float64(sentences)*10))
}

func actionability(cls model.Classification) float64 {
	score := causeActionability[cls.RootCause]
	if cls.Context.DepartmentPriority == "project management" {
		score += priorityBonus
	}
	return math.Min(1, score)
}

func strategic(cls model.Classification) float64 {
	score := causeStrategic[cls.RootCause]
	if cls.Context.Urgency == model.SeverityCritical {
		score += priorityBonus
	}
	return math.Min(1, score)
}
