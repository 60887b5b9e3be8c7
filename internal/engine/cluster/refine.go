package cluster

import "sort"

// refineStage is stage 2: it re-examines each density cluster in the
// semantic sub-space (embedding plus classification soft scores). Clusters
// that are dense in the full space but semantically incoherent get split
// along their weakest seam; clusters that say the same thing in different
// vocabularies get merged.
func (e *Engine) refineStage(pts []point, groups [][]int) [][]int {
	var refined [][]int
	for _, g := range groups {
		if meanPairwiseSim(pts, g, semVec) >= cohesionFloor || len(g) < 2*e.opts.MinClusterSize {
			refined = append(refined, g)
			continue
		}
		a, b := e.splitSeam(pts, g, semVec)
		refined = append(refined, a, b)
	}
	return e.mergeSimilar(pts, refined)
}

// splitSeam splits a group in two, seeded by its farthest pair; every other
// member joins the nearer seed. Both halves keep index order.
func (e *Engine) splitSeam(pts []point, g []int, vec vecOf) ([]int, []int) {
	sa, sb := farthestPair(pts, g, vec)
	var a, b []int
	for _, i := range g {
		switch {
		case i == sa:
			a = append(a, i)
		case i == sb:
			b = append(b, i)
		case cosineDist(vec(pts[i]), vec(pts[sa])) <= cosineDist(vec(pts[i]), vec(pts[sb])):
			a = append(a, i)
		default:
			b = append(b, i)
		}
	}
	sort.Ints(a)
	sort.Ints(b)
	return a, b
}

// mergeSimilar repeatedly merges the pair of clusters whose semantic
// centroids are most similar, while any pair clears the merge threshold.
func (e *Engine) mergeSimilar(pts []point, groups [][]int) [][]int {
	for len(groups) > 1 {
		bi, bj, best := -1, -1, mergeThreshold
		for i := 0; i < len(groups); i++ {
			ci := centroid(pts, groups[i], semVec)
			for j := i + 1; j < len(groups); j++ {
				if s := cosine(ci, centroid(pts, groups[j], semVec)); s >= best {
					best, bi, bj = s, i, j
				}
			}
		}
		if bi < 0 {
			break
		}
		merged := append(append([]int(nil), groups[bi]...), groups[bj]...)
		sort.Ints(merged)
		groups = append(groups[:bj], groups[bj+1:]...)
		groups[bi] = merged
	}
	return groups
}
