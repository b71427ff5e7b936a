package group

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const kmeansIterations = 100

// KMeans1D clusters values into k groups with Lloyd's algorithm and returns
// the centroids in ascending order. Centroids start at evenly spaced
// quantiles, so the result is deterministic. Fewer distinct values than k
// yield one centroid per distinct value.
func KMeans1D(values []float64, k int) []float64 {
	if len(values) == 0 || k < 1 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			distinct++
		}
	}
	k = min(k, distinct)

	centroids := make([]float64, k)
	for c := range centroids {
		p := 0.5
		if k > 1 {
			p = float64(c) / float64(k-1)
		}
		centroids[c] = stat.Quantile(p, stat.Empirical, sorted, nil)
	}

	assign := make([]int, len(sorted))
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, v := range sorted {
			best := 0
			for c := 1; c < k; c++ {
				if math.Abs(v-centroids[c]) < math.Abs(v-centroids[best]) {
					best = c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		members := make([][]float64, k)
		for i, v := range sorted {
			members[assign[i]] = append(members[assign[i]], v)
		}
		for c := range centroids {
			if len(members[c]) > 0 {
				centroids[c] = floats.Sum(members[c]) / float64(len(members[c]))
			}
		}
		if !changed && iter > 0 {
			break
		}
	}

	sort.Float64s(centroids)
	return centroids
}

// SelectThreshold returns the gravity a component needs to be retained: the
// largest centroid of a k-cluster split of the component gravities.
func SelectThreshold(comps []Component, k int) float64 {
	values := make([]float64, len(comps))
	for i, c := range comps {
		values[i] = c.Gravity
	}
	centroids := KMeans1D(values, k)
	if len(centroids) == 0 {
		return 0
	}
	return floats.Max(centroids)
}
