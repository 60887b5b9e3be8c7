package cluster

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/crimson-sun/beacon/internal/engine/membership"
	"github.com/crimson-sun/beacon/internal/model"
)

// testVector builds a feature vector whose embedding sits near one basis
// axis, with a small deterministic jitter on the last component so no two
// vectors are byte-identical. Axis must be < 7.
func testVector(id string, axis int, jitter float64) model.FeatureVector {
	emb := make([]float32, 8)
	emb[axis] = 1
	emb[7] = float32(jitter)
	return model.FeatureVector{
		SignalID:   id,
		Domain:     make([]float64, len(model.RootCauses)),
		SoftScores: make([]float64, len(model.RootCauses)),
		OrgContext: make([]float64, 6),
		Urgency:    make([]float64, 3),
		Embedding:  emb,
		Impact:     0.5,
		Provider:   "hashed-bow/8/v1",
		Confidence: 0.9,
	}
}

func classifyAll(vectors []model.FeatureVector, cause model.RootCause, conf float64) map[string]model.Classification {
	cls := make(map[string]model.Classification, len(vectors))
	for _, v := range vectors {
		cls[v.SignalID] = model.Classification{SignalID: v.SignalID, RootCause: cause, Confidence: conf}
	}
	return cls
}

// checkPartition verifies the hard-partition invariant: every input signal
// lands in exactly one cluster or in noise.
func checkPartition(t *testing.T, vectors []model.FeatureVector, res *Result) {
	t.Helper()
	seen := make(map[string]int)
	for _, c := range res.Clusters {
		for _, id := range c.SignalIDs {
			seen[id]++
		}
	}
	for _, id := range res.Noise {
		seen[id]++
	}
	for _, v := range vectors {
		if seen[v.SignalID] != 1 {
			t.Errorf("signal %s assigned %d times, want exactly 1", v.SignalID, seen[v.SignalID])
		}
	}
	if len(seen) != len(vectors) {
		t.Errorf("partition covers %d signals, want %d", len(seen), len(vectors))
	}
}

func TestClusterDominantGroup(t *testing.T) {
	var vectors []model.FeatureVector
	cls := make(map[string]model.Classification)
	for i := 0; i < 10; i++ {
		v := testVector(fmt.Sprintf("proc-%02d", i), 0, 0.01*float64(i))
		vectors = append(vectors, v)
		cls[v.SignalID] = model.Classification{SignalID: v.SignalID, RootCause: model.RootCauseProcess, Confidence: 0.9}
	}
	for i := 0; i < 2; i++ {
		v := testVector(fmt.Sprintf("tech-%d", i), 1, 0.01*float64(i))
		vectors = append(vectors, v)
		cls[v.SignalID] = model.Classification{SignalID: v.SignalID, RootCause: model.RootCauseTechnology, Confidence: 0.9}
	}

	eng, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Cluster(context.Background(), vectors, cls)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Clusters) == 0 {
		t.Fatal("no clusters accepted, want at least one")
	}
	for _, c := range res.Clusters {
		if c.DominantCause != model.RootCauseProcess {
			t.Errorf("cluster %d dominant cause %s, want PROCESS", c.Index, c.DominantCause)
		}
		if c.Potential() < DefaultOptions().QualityThreshold {
			t.Errorf("accepted cluster %d potential %.3f below threshold", c.Index, c.Potential())
		}
	}
	// Two technology signals cannot form a viable cluster on their own.
	wantNoise := map[string]bool{"tech-0": true, "tech-1": true}
	for _, id := range res.Noise {
		if !wantNoise[id] {
			t.Errorf("unexpected noise signal %s", id)
		}
	}
	checkPartition(t, vectors, res)
	if res.Degraded {
		t.Error("run marked degraded without budget pressure")
	}
	if len(res.Stages) != 3 {
		t.Errorf("got %d stage metrics, want 3", len(res.Stages))
	}
}

func TestClusterCountBounded(t *testing.T) {
	var vectors []model.FeatureVector
	for axis := 0; axis < 7; axis++ {
		for i := 0; i < 3; i++ {
			vectors = append(vectors, testVector(fmt.Sprintf("s-%d-%d", axis, i), axis, 0.01*float64(i)))
		}
	}
	cls := classifyAll(vectors, model.RootCauseProcess, 0.9)

	opts := DefaultOptions()
	eng, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Cluster(context.Background(), vectors, cls)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Clusters) > opts.TargetClusters {
		t.Errorf("got %d clusters, want at most %d", len(res.Clusters), opts.TargetClusters)
	}
	checkPartition(t, vectors, res)
}

func TestClusterRejectsLowQuality(t *testing.T) {
	var vectors []model.FeatureVector
	for i := 0; i < 4; i++ {
		vectors = append(vectors, testVector(fmt.Sprintf("w-%d", i), 0, 0.01*float64(i)))
	}
	// Tight geometry but weak classifications: potential stays under the
	// quality threshold, so the whole cluster is rejected.
	cls := classifyAll(vectors, model.RootCauseUnknown, 0.3)

	eng, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Cluster(context.Background(), vectors, cls)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Clusters) != 0 {
		t.Errorf("got %d clusters, want 0", len(res.Clusters))
	}
	if len(res.Noise) != len(vectors) {
		t.Errorf("got %d noise signals, want %d", len(res.Noise), len(vectors))
	}
}

func TestClusterSingleSignalMinSizeOne(t *testing.T) {
	opts := DefaultOptions()
	opts.MinClusterSize = 1
	opts.MinSamples = 1
	eng, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}

	vectors := []model.FeatureVector{testVector("solo", 0, 0)}
	cls := classifyAll(vectors, model.RootCauseProcess, 0.9)
	res, err := eng.Cluster(context.Background(), vectors, cls)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Clusters) != 1 || len(res.Clusters[0].SignalIDs) != 1 {
		t.Fatalf("got %d clusters, want one cluster of one", len(res.Clusters))
	}
	if c := res.Clusters[0]; c.Cohesion != 1 {
		t.Errorf("singleton cohesion %.3f, want 1", c.Cohesion)
	}
	checkPartition(t, vectors, res)

	// With a higher core-point requirement the lone signal is noise, not
	// a crash.
	opts.MinSamples = 2
	eng, err = New(opts)
	if err != nil {
		t.Fatal(err)
	}
	res, err = eng.Cluster(context.Background(), vectors, cls)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Clusters) != 0 || len(res.Noise) != 1 {
		t.Errorf("got %d clusters and %d noise, want all noise", len(res.Clusters), len(res.Noise))
	}
}

// scatteredVectors places each signal on its own embedding axis, with the
// shared impact scalar zeroed so nothing holds the batch together. The
// density radius adapts upward and sweeps them into one loose group.
func scatteredVectors(n int) []model.FeatureVector {
	vectors := make([]model.FeatureVector, 0, n)
	for axis := 0; axis < n; axis++ {
		v := testVector(fmt.Sprintf("iso-%d", axis), axis, 0.02)
		v.Impact = 0
		vectors = append(vectors, v)
	}
	return vectors
}

func TestClusterRejectsLooseGeometry(t *testing.T) {
	vectors := scatteredVectors(5)
	cls := classifyAll(vectors, model.RootCauseProcess, 0.9)

	// Strong classifications cannot rescue a cluster with no geometric
	// center: cohesion drags the potential under the gate.
	eng, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Cluster(context.Background(), vectors, cls)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Clusters) != 0 {
		t.Fatalf("got %d clusters from orthogonal signals, want 0", len(res.Clusters))
	}
	if len(res.Noise) != len(vectors) {
		t.Errorf("got %d noise signals, want %d", len(res.Noise), len(vectors))
	}
	checkPartition(t, vectors, res)
}

func TestClusterLooseGeometryMembership(t *testing.T) {
	vectors := scatteredVectors(5)
	cls := classifyAll(vectors, model.RootCauseProcess, 0.9)

	// Disable the gate to inspect the loose cluster it would have
	// rejected: every member sits far from the shared centroid.
	opts := DefaultOptions()
	opts.QualityThreshold = 0
	eng, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Cluster(context.Background(), vectors, cls)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Clusters) != 1 {
		t.Fatalf("got %d clusters with gate disabled, want 1", len(res.Clusters))
	}
	if p := res.Clusters[0].Potential(); p >= DefaultOptions().QualityThreshold {
		t.Errorf("loose cluster potential %.3f, want below default threshold", p)
	}

	assignments, err := membership.Score(res.Clusters, vectors)
	if err != nil {
		t.Fatal(err)
	}
	if len(assignments) != len(vectors) {
		t.Fatalf("got %d assignments, want %d", len(assignments), len(vectors))
	}
	for _, a := range assignments {
		if a.Strength >= membership.PeripheralMin {
			t.Errorf("signal %s strength %.3f, want below %.2f", a.SignalID, a.Strength, membership.PeripheralMin)
		}
		if a.Band != model.BandOutlier {
			t.Errorf("signal %s band %s, want outlier", a.SignalID, a.Band)
		}
	}
}

func TestClusterDeterministic(t *testing.T) {
	build := func() ([]model.FeatureVector, map[string]model.Classification) {
		var vectors []model.FeatureVector
		for axis := 0; axis < 3; axis++ {
			for i := 0; i < 4; i++ {
				vectors = append(vectors, testVector(fmt.Sprintf("d-%d-%d", axis, i), axis, 0.01*float64(i)))
			}
		}
		return vectors, classifyAll(vectors, model.RootCauseResource, 0.85)
	}

	eng, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	v1, c1 := build()
	first, err := eng.Cluster(context.Background(), v1, c1)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 5; run++ {
		v2, c2 := build()
		again, err := eng.Cluster(context.Background(), v2, c2)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(stripDurations(first), stripDurations(again)) {
			t.Fatalf("run %d diverged from first run", run)
		}
	}
}

// stripDurations zeroes wall-clock fields so runs compare structurally.
func stripDurations(res *Result) Result {
	out := *res
	out.Stages = append([]model.StageMetrics(nil), res.Stages...)
	for i := range out.Stages {
		out.Stages[i].Duration = 0
	}
	return out
}

func TestClusterInsufficientInput(t *testing.T) {
	vectors := []model.FeatureVector{testVector("a", 0, 0), testVector("b", 0, 0.01)}
	eng, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.Cluster(context.Background(), vectors, nil)
	if !errors.Is(err, model.ErrInsufficientInput) {
		t.Fatalf("got %v, want ErrInsufficientInput", err)
	}
}

func TestClusterProviderMismatch(t *testing.T) {
	vectors := []model.FeatureVector{
		testVector("a", 0, 0), testVector("b", 0, 0.01), testVector("c", 0, 0.02),
	}
	vectors[2].Provider = "onnx/minilm/384"
	eng, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.Cluster(context.Background(), vectors, nil)
	if !errors.Is(err, model.ErrProviderMismatch) {
		t.Fatalf("got %v, want ErrProviderMismatch", err)
	}
}

func TestClusterDegradesOnExpiredBudget(t *testing.T) {
	var vectors []model.FeatureVector
	cls := make(map[string]model.Classification)
	for i := 0; i < 10; i++ {
		v := testVector(fmt.Sprintf("proc-%02d", i), 0, 0.01*float64(i))
		vectors = append(vectors, v)
		cls[v.SignalID] = model.Classification{SignalID: v.SignalID, RootCause: model.RootCauseProcess, Confidence: 0.9}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng, err := New(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	res, err := eng.Cluster(ctx, vectors, cls)
	if err != nil {
		t.Fatalf("degraded run should still produce a result, got %v", err)
	}
	if !res.Degraded {
		t.Error("run not marked degraded")
	}
	checkPartition(t, vectors, res)
}

func TestOptionsValidate(t *testing.T) {
	for _, target := range []int{0, 3, 7, -1} {
		opts := DefaultOptions()
		opts.TargetClusters = target
		if _, err := New(opts); !errors.Is(err, model.ErrInvalidOptions) {
			t.Errorf("target %d: got %v, want ErrInvalidOptions", target, err)
		}
	}
	opts := DefaultOptions()
	opts.QualityThreshold = 1.5
	if _, err := New(opts); !errors.Is(err, model.ErrInvalidOptions) {
		t.Errorf("quality 1.5: got %v, want ErrInvalidOptions", err)
	}
}
