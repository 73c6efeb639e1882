// Package values implements the Value Store (spec.md §4.G): candidate
// principle texts are validated against a cluster's centroid neighborhood
// before being accepted, so only ideas the cluster already supports survive.
package values

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/cluster"
	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// validationTTL bounds how long a successful validate() result remains
// redeemable by a following store() call for the same text.
const validationTTL = 5 * time.Minute

// ValidateResult is the outcome of a validate() call (spec.md §4.G).
type ValidateResult struct {
	Valid     bool
	Distance  float64
	Threshold float64
	Reason    string
}

// Value is one accepted point in the `values` collection.
type Value struct {
	ID                 string
	Text               string
	Axis               ghap.Axis
	ClusterID          string
	ValidatedAt        time.Time
	DistanceToCentroid float64
	Threshold          float64
}

type cacheKey string

func newCacheKey(text, clusterID string) cacheKey {
	sum := sha256.Sum256([]byte(text))
	return cacheKey(hex.EncodeToString(sum[:]) + ":" + clusterID)
}

type cacheEntry struct {
	result    ValidateResult
	expiresAt time.Time
}

// Service implements validate/store/list over the `values` collection.
type Service struct {
	store    vectorstore.Store
	registry *embedding.Registry

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// New builds a Service over store and registry.
func New(store vectorstore.Store, registry *embedding.Registry) *Service {
	return &Service{store: store, registry: registry, cache: make(map[cacheKey]cacheEntry)}
}

// ParseClusterID splits "{axis}:{label}:{short-uuid}" into its axis and
// numeric label, per spec.md §3's Value.cluster_id format.
func ParseClusterID(clusterID string) (ghap.Axis, int, error) {
	parts := strings.SplitN(clusterID, ":", 3)
	if len(parts) != 3 {
		return "", 0, calmerr.Validationf("malformed cluster_id %q", clusterID)
	}
	axis := ghap.Axis(parts[0])
	if vectorstore.GHAPCollection(axis) == "" {
		return "", 0, calmerr.Validationf("cluster_id %q names an unknown axis", clusterID)
	}
	label, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, calmerr.Validationf("cluster_id %q has a non-numeric label", clusterID)
	}
	return axis, label, nil
}

// MakeClusterID formats an axis and label into a fresh cluster_id, minting
// a new short id to disambiguate distinct runs that reuse the same label.
func MakeClusterID(axis ghap.Axis, label int) string {
	return fmt.Sprintf("%s:%d:%s", axis, label, shortUUID())
}

func shortUUID() string {
	id := uuid.NewString()
	return id[:8]
}

// Validate resolves cluster_id to (axis, label), scrolls its members out of
// ghap_{axis}, and checks candidate text's semantic distance to the
// member-weighted centroid against mean+0.5·std of the members' own
// distances (spec.md §4.G, invariant 5).
func (s *Service) Validate(ctx context.Context, text, clusterID string) (ValidateResult, error) {
	axis, label, err := ParseClusterID(clusterID)
	if err != nil {
		return ValidateResult{}, err
	}

	collection := vectorstore.GHAPCollection(axis)
	field := fmt.Sprintf("cluster_label_%s", axis)
	members, err := s.scrollAll(ctx, collection, []vectorstore.Filter{
		{Field: field, Op: vectorstore.OpEq, Value: label},
	})
	if err != nil {
		return ValidateResult{}, calmerr.Wrap(calmerr.KindStoreError, "scroll cluster members", err)
	}
	if len(members) == 0 {
		return ValidateResult{}, calmerr.New(calmerr.KindEmptyCluster, fmt.Sprintf("cluster %q has no members", clusterID))
	}

	vectors := make([][]float32, len(members))
	weights := make([]float64, len(members))
	for i, m := range members {
		vectors[i] = m.Vector
		weights[i] = ghap.TierWeight(ghap.ConfidenceTier(fmt.Sprint(m.Payload["confidence_tier"])))
	}
	centroid, err := cluster.WeightedCentroid(vectors, weights)
	if err != nil {
		return ValidateResult{}, err
	}

	memberDistances := make([]float64, len(members))
	for i, v := range vectors {
		memberDistances[i] = 1 - float64(vectorstore.CosineSimilarity(v, centroid))
	}
	mean, std := stat.MeanStdDev(memberDistances, nil)
	threshold := mean + 0.5*std

	candidate, err := s.registry.EmbedOne(ctx, embedding.RoleSemantic, text)
	if err != nil {
		return ValidateResult{}, err
	}
	distance := 1 - float64(vectorstore.CosineSimilarity(candidate, centroid))

	result := ValidateResult{Valid: distance <= threshold, Distance: distance, Threshold: threshold}
	if !result.Valid {
		result.Reason = fmt.Sprintf("distance %.4f exceeds threshold %.4f", distance, threshold)
	}

	s.mu.Lock()
	s.cache[newCacheKey(text, clusterID)] = cacheEntry{result: result, expiresAt: time.Now().Add(validationTTL)}
	s.mu.Unlock()

	return result, nil
}

// Store records text as an accepted value for clusterID/axis. It requires a
// still-fresh, still-valid preceding Validate call for the exact same text
// and cluster_id (spec.md §4.G) — it never re-derives or persists a pointer
// back to the cluster's members (spec.md §9's back-reference warning).
func (s *Service) Store(ctx context.Context, text string, axis ghap.Axis, clusterID string) (*Value, error) {
	key := newCacheKey(text, clusterID)
	s.mu.Lock()
	entry, ok := s.cache[key]
	if ok {
		delete(s.cache, key) // single-use: a validate redeems exactly once
	}
	s.mu.Unlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, calmerr.New(calmerr.KindInvalidState, "store requires a fresh preceding validate for the same text and cluster_id")
	}
	if !entry.result.Valid {
		return nil, calmerr.New(calmerr.KindInvalidState, "preceding validate rejected this text")
	}

	vec, err := s.registry.EmbedOne(ctx, embedding.RoleSemantic, text)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	v := &Value{
		ID: uuid.NewString(), Text: text, Axis: axis, ClusterID: clusterID,
		ValidatedAt: now, DistanceToCentroid: entry.result.Distance, Threshold: entry.result.Threshold,
	}
	payload := vectorstore.Payload{
		"text": text, "axis": string(axis), "cluster_id": clusterID,
		"validated_at": now.Unix(), "distance_to_centroid": entry.result.Distance, "threshold": entry.result.Threshold,
	}
	if err := s.store.Upsert(ctx, vectorstore.CollectionValues, vectorstore.Point{ID: v.ID, Vector: vec, Payload: payload}); err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "upsert value", err)
	}
	return v, nil
}

// List scrolls the values collection, optionally filtered by axis.
func (s *Service) List(ctx context.Context, axis *ghap.Axis) ([]Value, error) {
	var filters []vectorstore.Filter
	if axis != nil {
		filters = append(filters, vectorstore.Filter{Field: "axis", Op: vectorstore.OpEq, Value: string(*axis)})
	}
	points, err := s.scrollAll(ctx, vectorstore.CollectionValues, filters)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "scroll values", err)
	}
	out := make([]Value, 0, len(points))
	for _, p := range points {
		out = append(out, Value{
			ID:                 p.ID,
			Text:               fmt.Sprint(p.Payload["text"]),
			Axis:               ghap.Axis(fmt.Sprint(p.Payload["axis"])),
			ClusterID:          fmt.Sprint(p.Payload["cluster_id"]),
			DistanceToCentroid: toFloat(p.Payload["distance_to_centroid"]),
			Threshold:          toFloat(p.Payload["threshold"]),
		})
	}
	return out, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}

const scrollPageSize = 200

func (s *Service) scrollAll(ctx context.Context, collection string, filters []vectorstore.Filter) ([]vectorstore.Point, error) {
	var all []vectorstore.Point
	offset := 0
	for {
		page, err := s.store.Scroll(ctx, collection, scrollPageSize, offset, filters)
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
