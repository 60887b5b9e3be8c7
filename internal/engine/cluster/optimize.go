package cluster

import "sort"

// optimizeStage is stage 3: it forces the cluster count toward the
// executive band, then applies the accept/reject gate. Rejected members
// are returned as noise indices.
//
// When too many clusters survive refinement, the least relevant one
// (smallest size weighted by mean impact) is folded into its nearest
// neighbor. When too few exist, the largest splittable cluster is divided
// along its weakest seam. Splitting stops rather than fragment below the
// minimum viable size.
func (e *Engine) optimizeStage(pts []point, groups [][]int) (accepted [][]int, noise []int) {
	for len(groups) > e.opts.TargetClusters {
		groups = e.mergeLeastRelevant(pts, groups)
	}
	for len(groups) < targetFloor {
		split, ok := e.splitLargest(pts, groups)
		if !ok {
			break
		}
		groups = split
	}

	for _, g := range groups {
		if len(g) < e.opts.MinClusterSize {
			noise = append(noise, g...)
			continue
		}
		cen := centroid(pts, g, fullVec)
		potential := meanConf(pts, g) * meanSimTo(pts, g, cen, fullVec)
		if potential < e.opts.QualityThreshold {
			noise = append(noise, g...)
			continue
		}
		accepted = append(accepted, g)
	}
	sort.Ints(noise)
	return accepted, noise
}

// mergeLeastRelevant folds the lowest-relevance cluster into the one whose
// centroid is nearest to it.
func (e *Engine) mergeLeastRelevant(pts []point, groups [][]int) [][]int {
	victim, lowest := 0, relevance(pts, groups[0])
	for i := 1; i < len(groups); i++ {
		if r := relevance(pts, groups[i]); r < lowest {
			lowest, victim = r, i
		}
	}

	vcen := centroid(pts, groups[victim], fullVec)
	host, hostDist := -1, 2.0
	for i := range groups {
		if i == victim {
			continue
		}
		if d := cosineDist(vcen, centroid(pts, groups[i], fullVec)); d < hostDist {
			hostDist, host = d, i
		}
	}

	merged := append(append([]int(nil), groups[host]...), groups[victim]...)
	sort.Ints(merged)
	groups = append(groups[:victim], groups[victim+1:]...)
	if host > victim {
		host--
	}
	groups[host] = merged
	return groups
}

// relevance weighs a cluster's size by the mean severity-derived impact of
// its members, so a small but severe cluster outlives a large mild one.
func relevance(pts []point, g []int) float64 {
	if len(g) == 0 {
		return 0
	}
	var sum float64
	for _, i := range g {
		sum += pts[i].impact
	}
	return float64(len(g)) * (sum / float64(len(g)))
}

// splitLargest splits the largest cluster that can yield two viable halves.
// Returns ok=false when no cluster is splittable.
func (e *Engine) splitLargest(pts []point, groups [][]int) ([][]int, bool) {
	target := -1
	for i, g := range groups {
		if len(g) < 2*e.opts.MinClusterSize {
			continue
		}
		if target < 0 || len(g) > len(groups[target]) {
			target = i
		}
	}
	if target < 0 {
		return groups, false
	}
	a, b := e.splitSeam(pts, groups[target], fullVec)
	if len(a) < e.opts.MinClusterSize || len(b) < e.opts.MinClusterSize {
		return groups, false
	}
	out := make([][]int, 0, len(groups)+1)
	out = append(out, groups[:target]...)
	out = append(out, a, b)
	out = append(out, groups[target+1:]...)
	return out, true
}
