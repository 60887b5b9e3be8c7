// Package engine orchestrates the per-signal stages: classification first,
// then feature engineering conditioned on the classification.
package engine

import (
	"context"
	"fmt"

	"github.com/crimson-sun/beacon/internal/engine/classifier"
	"github.com/crimson-sun/beacon/internal/engine/embedder"
	"github.com/crimson-sun/beacon/internal/engine/features"
	"github.com/crimson-sun/beacon/internal/model"
)

// Annotation is everything the engine derives for one signal.
type Annotation struct {
	Classification model.Classification
	Vector         model.FeatureVector
}

// Engine runs the per-signal stages. Safe for concurrent use: the
// classifier is stateless and the embedding provider guards its own state.
type Engine struct {
	classifier *classifier.Classifier
	features   *features.Engineer
}

// New wires the per-signal stages around the given embedding provider.
func New(provider embedder.Provider) *Engine {
	return &Engine{
		classifier: classifier.New(),
		features:   features.New(provider),
	}
}

// Process derives the full annotation for a single signal. Classification
// is total; only the embedding step can fail.
func (e *Engine) Process(ctx context.Context, sig model.Signal) (Annotation, error) {
	cls := e.classifier.Classify(sig)
	vec, err := e.features.Build(ctx, sig, cls)
	if err != nil {
		return Annotation{}, fmt.Errorf("engine: signal %s: %w", sig.ID, err)
	}
	return Annotation{Classification: cls, Vector: vec}, nil
}
