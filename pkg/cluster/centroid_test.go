package cluster

import (
	"testing"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedCentroidUniformWeights(t *testing.T) {
	vectors := [][]float32{{0, 0}, {2, 2}}
	weights := []float64{1, 1}
	c, err := WeightedCentroid(vectors, weights)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c[0], 1e-6)
	assert.InDelta(t, 1.0, c[1], 1e-6)
}

func TestWeightedCentroidSkewsTowardHeavierMember(t *testing.T) {
	vectors := [][]float32{{0, 0}, {4, 0}}
	weights := []float64{1.0, 0.2} // GOLD vs ABANDONED
	c, err := WeightedCentroid(vectors, weights)
	require.NoError(t, err)
	assert.Less(t, c[0], float32(1.0)) // pulled toward the heavier (0,0) point
}

func TestWeightedCentroidEmptyFails(t *testing.T) {
	_, err := WeightedCentroid(nil, nil)
	assert.True(t, calmerr.Is(err, calmerr.KindEmptyCluster))
}

func TestWeightedCentroidMismatchedLengthsFails(t *testing.T) {
	_, err := WeightedCentroid([][]float32{{1, 2}}, []float64{1, 2})
	assert.True(t, calmerr.Is(err, calmerr.KindValidation))
}

func TestWeightedCentroidZeroWeightsFails(t *testing.T) {
	_, err := WeightedCentroid([][]float32{{1, 2}}, []float64{0})
	assert.True(t, calmerr.Is(err, calmerr.KindEmptyCluster))
}
