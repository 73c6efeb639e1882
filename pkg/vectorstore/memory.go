package vectorstore

import (
	"context"
	"sort"
	"sync"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
)

// MemoryStore is the in-process, in-memory Store variant. It is the only
// variant permitted in tests (spec.md §4.A/§9); it never persists to disk.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dim    int
	metric Metric
	points map[string]Point
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) CreateCollection(_ context.Context, name string, dim int, metric Metric) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return true, nil
	}
	s.collections[name] = &memCollection{dim: dim, metric: metric, points: make(map[string]Point)}
	return false, nil
}

func (s *MemoryStore) collection(name string) (*memCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, calmerr.NotFoundf("collection %q does not exist", name)
	}
	return c, nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, point Point) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	if len(point.Vector) != c.dim {
		return calmerr.New(calmerr.KindDimensionMismatch, "vector dimension does not match collection")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	payload := make(Payload, len(point.Payload))
	for k, v := range point.Payload {
		payload[k] = v
	}
	vec := make([]float32, len(point.Vector))
	copy(vec, point.Vector)
	c.points[point.ID] = Point{ID: point.ID, Vector: vec, Payload: payload}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, collection string, query []float32, k int, filters []Filter) ([]Result, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(c.points))
	for _, p := range c.points {
		if !Matches(p.Payload, filters) {
			continue
		}
		score := CosineSimilarity(query, p.Vector)
		results = append(results, Result{ID: p.ID, Score: score, Payload: p.Payload})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemoryStore) Scroll(_ context.Context, collection string, limit int, offset int, filters []Filter) ([]Point, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Point, 0, len(c.points))
	for _, p := range c.points {
		if Matches(p.Payload, filters) {
			all = append(all, p)
		}
	}
	SortPointsByID(all)

	if offset >= len(all) {
		return []Point{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *MemoryStore) Get(_ context.Context, collection string, id string) (*Point, error) {
	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := c.points[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection string, id string) error {
	c, err := s.collection(collection)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(c.points, id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context, collection string, filters []Filter) (int, error) {
	c, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(filters) == 0 {
		return len(c.points), nil
	}
	n := 0
	for _, p := range c.points {
		if Matches(p.Payload, filters) {
			n++
		}
	}
	return n, nil
}
