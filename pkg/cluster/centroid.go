package cluster

import "github.com/codeready-toolchain/calm/pkg/calmerr"

// WeightedCentroid returns Σ w_i·v_i / Σ w_i over vectors, grounded on the
// running-weighted-sum style of other_examples' Nucleus clustering.go
// (avgVec/cosineSim helpers), adapted from an unweighted running sum to a
// tier-weighted one (spec.md §4.F, reused verbatim by the Value Store).
func WeightedCentroid(vectors [][]float32, weights []float64) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, calmerr.New(calmerr.KindEmptyCluster, "no members to centroid")
	}
	if len(vectors) != len(weights) {
		return nil, calmerr.Validationf("vectors and weights must be the same length")
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	var weightSum float64
	for i, v := range vectors {
		w := weights[i]
		weightSum += w
		for j, x := range v {
			sum[j] += w * float64(x)
		}
	}
	if weightSum == 0 {
		return nil, calmerr.New(calmerr.KindEmptyCluster, "member weights sum to zero")
	}
	out := make([]float32, dim)
	for j, s := range sum {
		out[j] = float32(s / weightSum)
	}
	return out, nil
}
