package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(i int) *mstNode { return &mstNode{point: i, members: []int{i}} }

func merge(left, right *mstNode, distance float64) *mstNode {
	members := append(append([]int{}, left.members...), right.members...)
	return &mstNode{left: left, right: right, distance: distance, members: members}
}

// A chain of merges that never produces two simultaneously-qualifying
// branches: each step folds one more point onto a growing blob. Only the
// first minClusterSize points that merge together should survive as a
// cluster; later points that join one at a time fall out as noise.
func TestCondenseTreeChainKeepsEarliestQualifyingBlob(t *testing.T) {
	n0, n1, n2, n3, n4 := leaf(0), leaf(1), leaf(2), leaf(3), leaf(4)
	m1 := merge(n0, n1, 1)
	m2 := merge(m1, n2, 2)
	m3 := merge(m2, n3, 3)
	root := merge(m3, n4, 4)

	clusters := condenseTree(root, 3)
	selected := selectClusters(clusters)

	var selectedIDs []int
	for id, ok := range selected {
		if ok {
			selectedIDs = append(selectedIDs, id)
		}
	}
	require.Len(t, selectedIDs, 1)

	c := clusters[selectedIDs[0]]
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, c.members)
	assert.Greater(t, c.stability, 0.0)
}

// Two independent blobs, each already past minClusterSize, merging only at
// the very top: both should survive as distinct, non-overlapping clusters.
func TestCondenseTreeTwoBlobsBothSelected(t *testing.T) {
	a := merge(merge(leaf(0), leaf(1), 0.5), leaf(2), 1)
	b := merge(merge(leaf(3), leaf(4), 0.5), leaf(5), 1)
	root := merge(a, b, 10)

	clusters := condenseTree(root, 3)
	selected := selectClusters(clusters)

	var members []map[int]bool
	for id, ok := range selected {
		if ok {
			members = append(members, clusters[id].members)
		}
	}
	require.Len(t, members, 2)

	all := map[int]bool{}
	for _, m := range members {
		for k := range m {
			all[k] = true
		}
	}
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true}, all)

	// the two clusters must not overlap
	for k := range members[0] {
		assert.False(t, members[1][k])
	}
}

func TestBuildHierarchySingletonAndEmpty(t *testing.T) {
	assert.Nil(t, buildHierarchy(0, nil))

	root := buildHierarchy(1, nil)
	require.NotNil(t, root)
	assert.Equal(t, []int{0}, root.members)
}

func TestBuildHierarchyMergesAllPoints(t *testing.T) {
	edges := []edge{{a: 0, b: 1, weight: 1}, {a: 1, b: 2, weight: 2}}
	root := buildHierarchy(3, edges)
	require.NotNil(t, root)
	assert.ElementsMatch(t, []int{0, 1, 2}, root.members)
}

func TestToLambdaHandlesZeroDistance(t *testing.T) {
	assert.Equal(t, maxLambda, toLambda(0))
	assert.Equal(t, 0.5, toLambda(2))
}
