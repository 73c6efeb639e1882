package vectorstore

import (
	"context"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
)

// ChromemStore is the real Store variant: one persistent chromem-go
// database rooted at a directory, one chromem collection per named CALM
// collection. It survives process restart because chromem-go persists its
// collections to disk under persistPath.
//
// chromem-go is a brute-force similarity engine with no native "list all"
// or "get by id" call, so ChromemStore keeps a small in-memory index
// (id -> Point) per collection to back Scroll/Get/Count/filtering, kept in
// sync on every Upsert/Delete and lazily rehydrated from chromem-go's
// QueryEmbedding (queried with a neutral vector and a large result cap) the
// first time a collection is touched after process start.
type ChromemStore struct {
	db *chromem.DB

	mu    sync.RWMutex
	dims  map[string]int
	index map[string]map[string]Point // collection -> id -> Point
	warm  map[string]bool
}

// scrollScanCap bounds the "list everything" query chromem-go is asked to
// satisfy when rehydrating the in-memory index; a single CALM home is
// expected to hold, at most, low tens of thousands of points per collection.
const scrollScanCap = 50000

// NewChromemStore opens (or creates) a chromem-go database rooted at
// persistPath. persistPath must be a directory under the CALM home
// (spec.md §6 calm_dir).
func NewChromemStore(persistPath string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(persistPath, false)
	if err != nil {
		return nil, calmerr.Wrap(calmerr.KindStoreError, "failed to open vector store", err)
	}
	return &ChromemStore{
		db:    db,
		dims:  make(map[string]int),
		index: make(map[string]map[string]Point),
		warm:  make(map[string]bool),
	}, nil
}

func noopEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, calmerr.New(calmerr.KindStoreError, "embedding function should never be invoked: vectors are supplied explicitly")
}

func (s *ChromemStore) CreateCollection(_ context.Context, name string, dim int, _ Metric) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.db.GetCollection(name, noopEmbeddingFunc)
	if existing != nil {
		s.dims[name] = dim
		if s.index[name] == nil {
			s.index[name] = make(map[string]Point)
		}
		return true, nil
	}
	if _, err := s.db.CreateCollection(name, nil, noopEmbeddingFunc); err != nil {
		return false, calmerr.Wrap(calmerr.KindStoreError, "failed to create collection", err)
	}
	s.dims[name] = dim
	s.index[name] = make(map[string]Point)
	return false, nil
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, int, error) {
	c := s.db.GetCollection(name, noopEmbeddingFunc)
	if c == nil {
		return nil, 0, calmerr.NotFoundf("collection %q does not exist", name)
	}
	s.mu.RLock()
	dim := s.dims[name]
	s.mu.RUnlock()
	return c, dim, nil
}

// rehydrate populates the in-memory index for collection from chromem-go's
// on-disk state, once per process lifetime, if it hasn't been touched yet.
func (s *ChromemStore) rehydrate(ctx context.Context, name string, c *chromem.Collection, dim int) {
	s.mu.Lock()
	if s.warm[name] {
		s.mu.Unlock()
		return
	}
	s.warm[name] = true
	if s.index[name] == nil {
		s.index[name] = make(map[string]Point)
	}
	s.mu.Unlock()

	if dim == 0 || c.Count() == 0 {
		return
	}
	zero := make([]float32, dim)
	results, err := c.QueryEmbedding(ctx, zero, min(c.Count(), scrollScanCap), nil, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	for _, r := range results {
		s.index[name][r.ID] = Point{ID: r.ID, Vector: r.Embedding, Payload: unstringifyPayload(r.Metadata)}
	}
	s.mu.Unlock()
}

func (s *ChromemStore) Upsert(ctx context.Context, collection string, point Point) error {
	c, dim, err := s.collection(collection)
	if err != nil {
		return err
	}
	if dim != 0 && len(point.Vector) != dim {
		return calmerr.New(calmerr.KindDimensionMismatch, "vector dimension does not match collection")
	}

	doc := chromem.Document{
		ID:        point.ID,
		Embedding: point.Vector,
		Metadata:  stringifyPayload(point.Payload),
	}
	if err := c.AddDocument(ctx, doc); err != nil {
		return calmerr.Wrap(calmerr.KindStoreError, "upsert failed", err)
	}

	s.mu.Lock()
	if s.index[collection] == nil {
		s.index[collection] = make(map[string]Point)
	}
	vec := make([]float32, len(point.Vector))
	copy(vec, point.Vector)
	payload := make(Payload, len(point.Payload))
	for k, v := range point.Payload {
		payload[k] = v
	}
	s.index[collection][point.ID] = Point{ID: point.ID, Vector: vec, Payload: payload}
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filters []Filter) ([]Result, error) {
	c, dim, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	s.rehydrate(ctx, collection, c, dim)

	s.mu.RLock()
	defer s.mu.RUnlock()
	points := s.index[collection]

	results := make([]Result, 0, len(points))
	for _, p := range points {
		if !Matches(p.Payload, filters) {
			continue
		}
		results = append(results, Result{ID: p.ID, Score: CosineSimilarity(query, p.Vector), Payload: p.Payload})
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

func (s *ChromemStore) Scroll(ctx context.Context, collection string, limit int, offset int, filters []Filter) ([]Point, error) {
	c, dim, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	s.rehydrate(ctx, collection, c, dim)

	s.mu.RLock()
	all := make([]Point, 0, len(s.index[collection]))
	for _, p := range s.index[collection] {
		if Matches(p.Payload, filters) {
			all = append(all, p)
		}
	}
	s.mu.RUnlock()

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

func (s *ChromemStore) Get(ctx context.Context, collection string, id string) (*Point, error) {
	c, dim, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	s.rehydrate(ctx, collection, c, dim)

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.index[collection][id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *ChromemStore) Delete(ctx context.Context, collection string, id string) error {
	c, _, err := s.collection(collection)
	if err != nil {
		return err
	}
	_ = c.Delete(ctx, nil, nil, id) // Delete is idempotent: a missing id is not an error.

	s.mu.Lock()
	delete(s.index[collection], id)
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Count(ctx context.Context, collection string, filters []Filter) (int, error) {
	c, dim, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return c.Count(), nil
	}
	s.rehydrate(ctx, collection, c, dim)

	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.index[collection] {
		if Matches(p.Payload, filters) {
			n++
		}
	}
	return n, nil
}
