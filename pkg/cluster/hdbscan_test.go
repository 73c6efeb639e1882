package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUnitLength(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 1.0, math.Hypot(v[0], v[1]), 1e-9)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, v)
}

func TestCoreDistancesPicksKthNeighbor(t *testing.T) {
	dist := [][]float64{
		{0, 1, 2, 9},
		{1, 0, 1, 8},
		{2, 1, 0, 7},
		{9, 8, 7, 0},
	}
	core := coreDistances(dist, 3)
	// point 0's sorted distances are [0,1,2,9]; min_samples=3 -> index 2 -> 2.
	assert.Equal(t, 2.0, core[0])
	assert.Equal(t, 1.0, core[1])
}

func TestPrimMSTConnectsAllPoints(t *testing.T) {
	weights := [][]float64{
		{0, 1, 4},
		{1, 0, 2},
		{4, 2, 0},
	}
	edges := primMST(weights)
	assert.Len(t, edges, 2)
	var total float64
	for _, e := range edges {
		total += e.weight
	}
	assert.Equal(t, 3.0, total) // edges (0,1)=1 and (1,2)=2
}

func TestMutualReachabilitySymmetricAndUsesCore(t *testing.T) {
	dist := [][]float64{{0, 1}, {1, 0}}
	core := []float64{5, 0.5}
	mr := mutualReachability(dist, core)
	assert.Equal(t, mr[0][1], mr[1][0])
	assert.Equal(t, 5.0, mr[0][1]) // core[0]=5 dominates dist=1 and core[1]=0.5
}
