package cluster

import "sort"

// mstNode is one node of the single-linkage hierarchy: a leaf (one original
// point) or an internal merge of two prior nodes at a given distance.
type mstNode struct {
	left, right *mstNode
	point       int
	distance    float64
	members     []int
}

func (n *mstNode) isLeaf() bool { return n.left == nil }

type unionFind struct {
	parent []int
	rank   []int
	node   []*mstNode
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n), node: make([]*mstNode, n)}
	for i := 0; i < n; i++ {
		uf.parent[i] = i
		uf.node[i] = &mstNode{point: i, members: []int{i}}
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the components of a and b, returning the merged node.
func (uf *unionFind) union(a, b int, distance float64) *mstNode {
	ra, rb := uf.find(a), uf.find(b)
	left, right := uf.node[ra], uf.node[rb]
	members := make([]int, 0, len(left.members)+len(right.members))
	members = append(members, left.members...)
	members = append(members, right.members...)
	merged := &mstNode{left: left, right: right, distance: distance, members: members}

	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
	uf.node[ra] = merged
	return merged
}

// buildHierarchy turns the MST edges into a single binary single-linkage
// tree, returning its root.
func buildHierarchy(n int, edges []edge) *mstNode {
	if n == 0 {
		return nil
	}
	if n == 1 {
		return &mstNode{point: 0, members: []int{0}}
	}
	sorted := make([]edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].weight < sorted[j].weight })

	uf := newUnionFind(n)
	var root *mstNode
	for _, e := range sorted {
		root = uf.union(e.a, e.b, e.weight)
	}
	return root
}

// clusterNode is one node of the condensed tree — a candidate flat cluster.
type clusterNode struct {
	id        int
	birth     float64
	stability float64
	members   map[int]bool
	children  []int
	parent    int
}

// maxLambda stands in for 1/0 when two points merge at distance 0
// (duplicate embeddings); it keeps the stability arithmetic finite instead
// of propagating +Inf.
const maxLambda = 1e12

func toLambda(distance float64) float64 {
	if distance <= 0 {
		return maxLambda
	}
	return 1 / distance
}

// condenseTree walks root top-down, producing the condensed cluster tree
// per the rules in spec.md §4.F's HDBSCAN description: a node's two
// children are both promoted to new clusters only when each independently
// reaches minClusterSize; otherwise the smaller side falls out as noise
// and the larger side carries the parent's identity (or starts a fresh one,
// the first time a blob reaches minClusterSize).
func condenseTree(root *mstNode, minClusterSize int) map[int]*clusterNode {
	clusters := make(map[int]*clusterNode)
	nextID := 1 // 0 is reserved to mean "no cluster yet"

	var walk func(node *mstNode, id int, birth float64)
	walk = func(node *mstNode, id int, birth float64) {
		if node.isLeaf() {
			return
		}
		lambdaHere := toLambda(node.distance)
		leftQ := len(node.left.members) >= minClusterSize
		rightQ := len(node.right.members) >= minClusterSize

		switch {
		case leftQ && rightQ:
			if id != 0 {
				finalize(clusters[id], lambdaHere)
			}
			leftID := nextID
			nextID++
			rightID := nextID
			nextID++
			clusters[leftID] = newClusterNode(leftID, lambdaHere, node.left.members, id)
			clusters[rightID] = newClusterNode(rightID, lambdaHere, node.right.members, id)
			if id != 0 {
				clusters[id].children = []int{leftID, rightID}
			}
			walk(node.left, leftID, lambdaHere)
			walk(node.right, rightID, lambdaHere)

		case leftQ && !rightQ:
			continueID := continueCluster(clusters, id, lambdaHere, node.left.members, node.right.members, &nextID)
			walk(node.left, continueID, clusters[continueID].birth)

		case rightQ && !leftQ:
			continueID := continueCluster(clusters, id, lambdaHere, node.right.members, node.left.members, &nextID)
			walk(node.right, continueID, clusters[continueID].birth)

		default:
			if id != 0 {
				finalize(clusters[id], lambdaHere)
			}
			// neither side ever reaches minClusterSize on its own; the
			// whole subtree is noise from here down.
		}
	}

	walk(root, 0, 0)
	return clusters
}

func newClusterNode(id int, birth float64, members []int, parent int) *clusterNode {
	set := make(map[int]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	return &clusterNode{id: id, birth: birth, members: set, parent: parent}
}

// continueCluster accounts for a split where exactly one side still
// qualifies: the other side's points fall out as noise, and the
// qualifying side carries the cluster's identity forward. If id is 0 (no
// cluster yet), the qualifying side instead founds a brand new cluster
// born at lambdaHere. Returns the id the qualifying side should continue
// under.
func continueCluster(clusters map[int]*clusterNode, id int, lambdaHere float64, qualifying, fallenOut []int, nextID *int) int {
	if id != 0 {
		c := clusters[id]
		c.stability += float64(len(fallenOut)) * (lambdaHere - c.birth)
		for _, m := range fallenOut {
			delete(c.members, m)
		}
		return id
	}
	newID := *nextID
	*nextID++
	clusters[newID] = newClusterNode(newID, lambdaHere, qualifying, 0)
	return newID
}

func finalize(c *clusterNode, lambdaHere float64) {
	c.stability += float64(len(c.members)) * (lambdaHere - c.birth)
}

// selectClusters runs excess-of-mass selection over the condensed tree,
// returning the ids of the selected (non-overlapping) flat clusters.
func selectClusters(clusters map[int]*clusterNode) map[int]bool {
	ids := make([]int, 0, len(clusters))
	for id := range clusters {
		ids = append(ids, id)
	}
	// Children are born at a strictly higher birth lambda than their
	// parent, so sorting by descending birth visits children before
	// parents — the order excess-of-mass selection needs.
	sort.Slice(ids, func(i, j int) bool { return clusters[ids[i]].birth > clusters[ids[j]].birth })

	selected := make(map[int]bool, len(clusters))
	childSum := make(map[int]float64, len(clusters))

	for _, id := range ids {
		c := clusters[id]
		if len(c.children) == 0 {
			selected[id] = true
			childSum[id] = c.stability
			continue
		}
		sum := 0.0
		for _, ch := range c.children {
			sum += childSum[ch]
		}
		if c.stability >= sum {
			selected[id] = true
			childSum[id] = c.stability
			deselectSubtree(clusters, selected, c.children)
		} else {
			selected[id] = false
			childSum[id] = sum
		}
	}
	return selected
}

func deselectSubtree(clusters map[int]*clusterNode, selected map[int]bool, ids []int) {
	for _, id := range ids {
		selected[id] = false
		if c, ok := clusters[id]; ok {
			deselectSubtree(clusters, selected, c.children)
		}
	}
}
