// Package cluster implements the Experience Clusterer (spec.md §4.F): a
// from-scratch HDBSCAN (no suitable library exists anywhere in the example
// pack for density-based clustering) plus the weighted-centroid math the
// Value Store (spec.md §4.G) reuses.
//
// Construction follows the published HDBSCAN algorithm: core distances via
// k-nearest-neighbor, a mutual-reachability graph, its minimum spanning
// tree (Prim's algorithm), the resulting single-linkage hierarchy, and
// cluster extraction from the condensed tree by excess-of-mass.
package cluster

import "math"

// Point is one member offered to the clusterer, identified by its L2-
// normalized vector. Normalization happens once, by the caller's raw
// vectors, via Normalize.
type Point struct {
	Vector []float64
}

// Normalize L2-normalizes v, matching spec.md §4.F's "euclidean on
// L2-normalized vectors" (ranking-equivalent to cosine distance).
func Normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var sumSq float64
	for i, x := range v {
		out[i] = float64(x)
		sumSq += out[i] * out[i]
	}
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i := range out {
		out[i] /= norm
	}
	return out
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// coreDistances returns, for each point, its distance to the min-samples-th
// nearest neighbor (counting itself as the closest, at distance 0).
func coreDistances(dist [][]float64, minSamples int) []float64 {
	n := len(dist)
	core := make([]float64, n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		copy(row, dist[i])
		sortFloats(row)
		k := minSamples - 1
		if k >= n {
			k = n - 1
		}
		if k < 0 {
			k = 0
		}
		core[i] = row[k]
	}
	return core
}

func sortFloats(a []float64) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1] > a[j]; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}

func distanceMatrix(points []Point) [][]float64 {
	n := len(points)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := euclidean(points[i].Vector, points[j].Vector)
			d[i][j], d[j][i] = v, v
		}
	}
	return d
}

// mutualReachability builds the weighted complete graph CALM runs its MST
// over: weight(i,j) = max(core(i), core(j), dist(i,j)).
func mutualReachability(dist [][]float64, core []float64) [][]float64 {
	n := len(dist)
	mr := make([][]float64, n)
	for i := range mr {
		mr[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			w := dist[i][j]
			if core[i] > w {
				w = core[i]
			}
			if core[j] > w {
				w = core[j]
			}
			mr[i][j] = w
		}
	}
	return mr
}

type edge struct {
	a, b   int
	weight float64
}

// primMST returns the n-1 edges of the minimum spanning tree of the
// complete graph described by weights, in arbitrary order.
func primMST(weights [][]float64) []edge {
	n := len(weights)
	if n == 0 {
		return nil
	}
	inTree := make([]bool, n)
	minEdge := make([]float64, n)
	minFrom := make([]int, n)
	for i := range minEdge {
		minEdge[i] = math.Inf(1)
		minFrom[i] = -1
	}
	inTree[0] = true
	for j := 1; j < n; j++ {
		minEdge[j] = weights[0][j]
		minFrom[j] = 0
	}

	edges := make([]edge, 0, n-1)
	for range n - 1 {
		next := -1
		best := math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && minEdge[j] < best {
				best = minEdge[j]
				next = j
			}
		}
		if next == -1 {
			break // graph disconnected; should not happen for finite weights
		}
		inTree[next] = true
		edges = append(edges, edge{a: minFrom[next], b: next, weight: minEdge[next]})
		for j := 0; j < n; j++ {
			if !inTree[j] && weights[next][j] < minEdge[j] {
				minEdge[j] = weights[next][j]
				minFrom[j] = next
			}
		}
	}
	return edges
}
