// Package vectorstore defines CALM's named vector collections with cosine
// distance (spec.md §4.B): upsert, search, scroll, delete, and filtered
// queries by payload, over two interchangeable backends — a real
// chromem-go-backed store and an in-memory mock used only in tests.
package vectorstore

import "context"

// Payload is an unordered mapping of primitive/string fields (spec.md §3).
type Payload map[string]any

// Point is one entry in a collection.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Result is a single ranked search hit.
type Result struct {
	ID      string
	Score   float32 // cosine similarity in [-1, 1]
	Payload Payload
}

// Metric identifies the distance function a collection uses. CALM only
// ever creates cosine collections (spec.md §3), but the type exists so
// CreateCollection's contract is explicit rather than implicit.
type Metric string

const MetricCosine Metric = "cosine"

// Store is the capability set both the real and mock vector store variants
// satisfy (spec.md §4.B).
type Store interface {
	// CreateCollection is idempotent; it reports whether the collection
	// already existed.
	CreateCollection(ctx context.Context, name string, dim int, metric Metric) (existed bool, err error)

	// Upsert is last-write-wins and atomic per point. The vector's length
	// must match the collection's dimension or DimensionMismatch is returned.
	Upsert(ctx context.Context, collection string, point Point) error

	// Search returns up to k hits, filters applied before ranking, sorted
	// by descending similarity.
	Search(ctx context.Context, collection string, query []float32, k int, filters []Filter) ([]Result, error)

	// Scroll returns a stable-ordered (by id), paginated view of a
	// collection's points.
	Scroll(ctx context.Context, collection string, limit int, offset int, filters []Filter) ([]Point, error)

	Get(ctx context.Context, collection string, id string) (*Point, error)
	Delete(ctx context.Context, collection string, id string) error
	Count(ctx context.Context, collection string, filters []Filter) (int, error)
}
