package cluster

import "gonum.org/v1/gonum/floats"

// vecOf selects which representation of a point a computation runs over.
type vecOf func(point) []float64

func fullVec(p point) []float64 { return p.full }
func semVec(p point) []float64  { return p.sem }

func cosine(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func cosineDist(a, b []float64) float64 { return 1 - cosine(a, b) }

// centroid returns the component-wise mean of the group's vectors.
func centroid(pts []point, g []int, vec vecOf) []float64 {
	if len(g) == 0 {
		return nil
	}
	out := make([]float64, len(vec(pts[g[0]])))
	for _, i := range g {
		floats.Add(out, vec(pts[i]))
	}
	floats.Scale(1/float64(len(g)), out)
	return out
}

// meanSimTo is the group's cohesion: average cosine similarity of each
// member to the given centroid, clamped to [0,1].
func meanSimTo(pts []point, g []int, cen []float64, vec vecOf) float64 {
	if len(g) == 0 {
		return 0
	}
	var sum float64
	for _, i := range g {
		sum += cosine(vec(pts[i]), cen)
	}
	m := sum / float64(len(g))
	if m < 0 {
		return 0
	}
	if m > 1 {
		return 1
	}
	return m
}

// meanPairwiseSim is the average cosine similarity across all member pairs.
// Single-member groups are perfectly cohesive by definition.
func meanPairwiseSim(pts []point, g []int, vec vecOf) float64 {
	if len(g) < 2 {
		return 1
	}
	var sum float64
	var n int
	for i := 0; i < len(g); i++ {
		for j := i + 1; j < len(g); j++ {
			sum += cosine(vec(pts[g[i]]), vec(pts[g[j]]))
			n++
		}
	}
	return sum / float64(n)
}

// farthestPair returns the two member indices with the largest distance.
func farthestPair(pts []point, g []int, vec vecOf) (int, int) {
	a, b := g[0], g[0]
	var max float64
	for i := 0; i < len(g); i++ {
		for j := i + 1; j < len(g); j++ {
			if d := cosineDist(vec(pts[g[i]]), vec(pts[g[j]])); d > max {
				max, a, b = d, g[i], g[j]
			}
		}
	}
	return a, b
}
