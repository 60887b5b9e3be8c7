package membership

import (
	"fmt"
	"strings"
	"testing"

	"github.com/crimson-sun/beacon/internal/model"
)

func flatVector(id string, emb []float32) model.FeatureVector {
	return model.FeatureVector{
		SignalID:   id,
		Domain:     make([]float64, len(model.RootCauses)),
		SoftScores: make([]float64, len(model.RootCauses)),
		OrgContext: make([]float64, 6),
		Urgency:    make([]float64, 3),
		Embedding:  emb,
		Provider:   "hashed-bow/4/v1",
	}
}

// testCluster wires signals to a centroid aligned with the first embedding
// axis, padded out to the full concatenated width.
func testCluster(ids ...string) model.Cluster {
	v := flatVector("pad", []float32{1, 0, 0, 0})
	centroid := v.Concat()
	return model.Cluster{Index: 0, SignalIDs: ids, Centroid: centroid}
}

func TestScoreBands(t *testing.T) {
	cases := []struct {
		emb  []float32
		band model.Band
	}{
		{[]float32{1, 0, 0, 0}, model.BandCore},          // aligned with centroid
		{[]float32{0.85, 0.52, 0, 0}, model.BandCore},    // cos ~0.85
		{[]float32{0.6, 0.8, 0, 0}, model.BandPeripheral}, // cos ~0.6
		{[]float32{0.3, 0.95, 0, 0}, model.BandOutlier},  // cos ~0.3
		{[]float32{0, 1, 0, 0}, model.BandOutlier},       // orthogonal
	}

	var vectors []model.FeatureVector
	var ids []string
	for i, c := range cases {
		id := fmt.Sprintf("sig-%d", i)
		ids = append(ids, id)
		vectors = append(vectors, flatVector(id, c.emb))
	}

	got, err := Score([]model.Cluster{testCluster(ids...)}, vectors)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(cases) {
		t.Fatalf("got %d assignments, want %d", len(got), len(cases))
	}
	for i, a := range got {
		if a.Band != cases[i].band {
			t.Errorf("%s: strength %.3f band %s, want %s", a.SignalID, a.Strength, a.Band, cases[i].band)
		}
		if a.Strength < 0 || a.Strength > 1 {
			t.Errorf("%s: strength %.3f outside [0,1]", a.SignalID, a.Strength)
		}
	}
	if got[0].Strength <= got[2].Strength || got[2].Strength <= got[4].Strength {
		t.Error("strengths not ordered by alignment with centroid")
	}
}

func TestScoreMissingVector(t *testing.T) {
	_, err := Score([]model.Cluster{testCluster("known", "ghost")},
		[]model.FeatureVector{flatVector("known", []float32{1, 0, 0, 0})})
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("got %v, want error naming the missing signal", err)
	}
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		s    float64
		want model.Band
	}{
		{1.0, model.BandCore},
		{0.8, model.BandCore},
		{0.79, model.BandPeripheral},
		{0.5, model.BandPeripheral},
		{0.49, model.BandOutlier},
		{0, model.BandOutlier},
	}
	for _, c := range cases {
		if got := BandFor(c.s); got != c.want {
			t.Errorf("BandFor(%.2f) = %s, want %s", c.s, got, c.want)
		}
	}
}
