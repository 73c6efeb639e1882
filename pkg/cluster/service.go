package cluster

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

const (
	minClusterSize = 5
	minSamples     = 3
	minMembers     = 20
	scrollPageSize = 200
	noiseLabel     = -1
)

// ClusterInfo is one selected flat cluster from a run (spec.md §4.F).
type ClusterInfo struct {
	Label            int
	MemberIDs        []string
	Size             int
	WeightedCentroid []float32
}

// Service runs the clusterer over a GHAP axis collection.
type Service struct {
	store vectorstore.Store
}

// New builds a Service over store.
func New(store vectorstore.Store) *Service {
	return &Service{store: store}
}

// Run clusters every member of ghap_{axis}, writes cluster_label_{axis} back
// to each member's payload, and returns the selected (non-noise) clusters.
// Refuses with InsufficientData if the axis has fewer than minMembers.
func (s *Service) Run(ctx context.Context, axis ghap.Axis) ([]ClusterInfo, error) {
	collection := vectorstore.GHAPCollection(axis)
	if collection == "" {
		return nil, calmerr.Validationf("unknown axis %q", axis)
	}

	members, err := s.scrollAll(ctx, collection)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "scroll axis collection", err)
	}
	if len(members) < minMembers {
		return nil, calmerr.New(calmerr.KindInsufficientData,
			fmt.Sprintf("axis %q has %d members, need at least %d", axis, len(members), minMembers))
	}

	points := make([]Point, len(members))
	for i, m := range members {
		points[i] = Point{Vector: Normalize(m.Vector)}
	}

	labels := s.cluster(points)

	byLabel := make(map[int][]int)
	for i, label := range labels {
		if label == noiseLabel {
			continue
		}
		byLabel[label] = append(byLabel[label], i)
	}

	infos := make([]ClusterInfo, 0, len(byLabel))
	field := fmt.Sprintf("cluster_label_%s", axis)
	for label, idxs := range byLabel {
		vectors := make([][]float32, len(idxs))
		weights := make([]float64, len(idxs))
		ids := make([]string, len(idxs))
		for i, idx := range idxs {
			vectors[i] = members[idx].Vector
			weights[i] = ghap.TierWeight(ghap.ConfidenceTier(fmt.Sprint(members[idx].Payload["confidence_tier"])))
			ids[i] = members[idx].ID
		}
		centroid, err := WeightedCentroid(vectors, weights)
		if err != nil {
			return nil, err
		}
		infos = append(infos, ClusterInfo{Label: label, MemberIDs: ids, Size: len(ids), WeightedCentroid: centroid})

		for _, id := range ids {
			payload := vectorstore.Payload{field: label}
			if err := s.relabel(ctx, collection, id, payload); err != nil {
				return nil, calmerr.Wrap(calmerr.KindStoreError, "write cluster label", err)
			}
		}
	}

	return infos, nil
}

// relabel merges field into the existing point's payload and re-upserts it
// (cluster_label_{axis} is additive; last-write-wins per run is acceptable
// since labels are only valid until the next run, spec.md invariant 7).
func (s *Service) relabel(ctx context.Context, collection, id string, fields vectorstore.Payload) error {
	existing, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	for k, v := range fields {
		existing.Payload[k] = v
	}
	return s.store.Upsert(ctx, collection, *existing)
}

// cluster runs the HDBSCAN pipeline over points and returns one label per
// point, parallel to the input slice; noiseLabel marks unassigned points.
func (s *Service) cluster(points []Point) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = noiseLabel
	}
	if n == 0 {
		return labels
	}

	dist := distanceMatrix(points)
	core := coreDistances(dist, minSamples)
	mr := mutualReachability(dist, core)
	mst := primMST(mr)
	root := buildHierarchy(n, mst)
	if root == nil {
		return labels
	}
	clusters := condenseTree(root, minClusterSize)
	selected := selectClusters(clusters)

	// Flat labels are assigned in selection order; only members of a
	// selected cluster not claimed by a child cluster get its label (a
	// selected cluster's own members map has already had fallen-out /
	// promoted-child members removed during condensation).
	label := 0
	for id, sel := range selected {
		if !sel {
			continue
		}
		for member := range clusters[id].members {
			labels[member] = label
		}
		label++
	}
	return labels
}

// scrollAll pages through collection until exhausted, returning every point.
func (s *Service) scrollAll(ctx context.Context, collection string) ([]vectorstore.Point, error) {
	var all []vectorstore.Point
	offset := 0
	for {
		page, err := s.store.Scroll(ctx, collection, scrollPageSize, offset, nil)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < scrollPageSize {
			return all, nil
		}
		offset += scrollPageSize
	}
}
