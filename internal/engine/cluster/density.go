package cluster

import (
	"context"
	"sort"
)

const (
	// epsFloor keeps the adaptive radius usable when most vectors are
	// near-identical and the k-distances collapse toward zero.
	epsFloor = 0.05

	// distCheckInterval is how many distance rows are computed between
	// context checks in the pairwise pass.
	distCheckInterval = 64
)

// densityStage is stage 1: a density scan over cosine distance on the full
// feature vector. The neighborhood radius is derived from the data (median
// k-distance) so the stage never needs a target count. When the context
// deadline expires mid-scan the stage falls back to cheap centroid grouping
// and reports the run as degraded.
func (e *Engine) densityStage(ctx context.Context, pts []point) (groups [][]int, noise []int, degraded bool, err error) {
	n := len(pts)
	dist, ok := e.distanceMatrix(ctx, pts)
	if !ok {
		groups = e.centroidFallback(pts)
		e.log.Warn("density scan out of budget, degraded to centroid grouping", "signals", n)
		return groups, nil, true, nil
	}

	eps := adaptiveEps(dist, e.opts.MinSamples)

	const (
		unvisited = 0
		inNoise   = -1
	)
	labels := make([]int, n) // 0 unvisited, -1 noise, >0 cluster id
	next := 1

	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		nb := neighbors(dist, i, eps)
		if len(nb) < e.opts.MinSamples {
			labels[i] = inNoise
			continue
		}
		labels[i] = next
		queue := append([]int(nil), nb...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if labels[j] == inNoise {
				labels[j] = next // border point reclaimed
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = next
			jnb := neighbors(dist, j, eps)
			if len(jnb) >= e.opts.MinSamples {
				queue = append(queue, jnb...)
			}
		}
		next++
	}

	byID := make(map[int][]int)
	for i, l := range labels {
		if l > 0 {
			byID[l] = append(byID[l], i)
		}
	}
	for id := 1; id < next; id++ {
		g := byID[id]
		if len(g) < e.opts.MinClusterSize {
			noise = append(noise, g...)
			continue
		}
		groups = append(groups, g)
	}
	for i, l := range labels {
		if l == inNoise {
			noise = append(noise, i)
		}
	}
	sort.Ints(noise)
	return groups, noise, false, nil
}

// distanceMatrix computes pairwise cosine distances, checking the context
// periodically. Returns ok=false when the budget ran out first.
func (e *Engine) distanceMatrix(ctx context.Context, pts []point) ([][]float64, bool) {
	n := len(pts)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if i%distCheckInterval == 0 && ctx.Err() != nil {
			return nil, false
		}
		for j := i + 1; j < n; j++ {
			d := cosineDist(pts[i].full, pts[j].full)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist, true
}

// adaptiveEps derives the neighborhood radius as the median k-distance,
// with a floor for degenerate (near-identical) batches.
func adaptiveEps(dist [][]float64, k int) float64 {
	n := len(dist)
	// A single point has no k-distance; any radius will do.
	if n < 2 {
		return epsFloor
	}
	if k >= n {
		k = n - 1
	}
	kdist := make([]float64, 0, n)
	row := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		row = row[:0]
		for j := 0; j < n; j++ {
			if j != i {
				row = append(row, dist[i][j])
			}
		}
		sort.Float64s(row)
		kdist = append(kdist, row[k-1])
	}
	sort.Float64s(kdist)
	eps := kdist[len(kdist)/2]
	if eps < epsFloor {
		eps = epsFloor
	}
	return eps
}

// neighbors returns all points within eps of i, including i itself, in
// index order.
func neighbors(dist [][]float64, i int, eps float64) []int {
	var nb []int
	for j := range dist[i] {
		if dist[i][j] <= eps {
			nb = append(nb, j)
		}
	}
	return nb
}

// centroidFallback is the degraded grouping: farthest-point seeding then a
// single nearest-centroid assignment pass. Linear in points per seed, so it
// fits even an exhausted budget.
func (e *Engine) centroidFallback(pts []point) [][]int {
	k := e.opts.TargetClusters
	if k > len(pts) {
		k = len(pts)
	}

	seeds := []int{0}
	for len(seeds) < k {
		far, farDist := -1, -1.0
		for i := range pts {
			min := 2.0
			for _, s := range seeds {
				if d := cosineDist(pts[i].full, pts[s].full); d < min {
					min = d
				}
			}
			if min > farDist {
				farDist, far = min, i
			}
		}
		seeds = append(seeds, far)
	}

	groups := make([][]int, len(seeds))
	for i := range pts {
		best, bestDist := 0, 2.0
		for si, s := range seeds {
			if d := cosineDist(pts[i].full, pts[s].full); d < bestDist {
				bestDist, best = d, si
			}
		}
		groups[best] = append(groups[best], i)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}
