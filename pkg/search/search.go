// Package search implements the Unified Searcher (spec.md §4.H): five typed
// methods, each embedding its query with the role-appropriate embedder and
// running a filtered top-k search over one collection.
package search

import (
	"context"

	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// DefaultLimit is used when a caller does not specify k.
const DefaultLimit = 10

// Searcher wraps a vector store and embedding registry to serve the five
// search operations named in spec.md §4.H. Empty results are success, not
// error — every method returns a possibly-empty slice and a nil error.
type Searcher struct {
	store    vectorstore.Store
	registry *embedding.Registry
}

// New builds a Searcher over store and registry.
func New(store vectorstore.Store, registry *embedding.Registry) *Searcher {
	return &Searcher{store: store, registry: registry}
}

// MemoryFilter narrows search_memories (spec.md §4.H).
type MemoryFilter struct {
	Category     string
	MinImportance *float64
	TagsAny      []string
}

// SearchMemories embeds query via the semantic embedder and searches
// `memories`, filtered by category, minimum importance, and tag overlap.
func (s *Searcher) SearchMemories(ctx context.Context, query string, k int, f MemoryFilter) ([]vectorstore.Result, error) {
	var filters []vectorstore.Filter
	if f.Category != "" {
		filters = append(filters, vectorstore.Filter{Field: "category", Op: vectorstore.OpEq, Value: f.Category})
	}
	if f.MinImportance != nil {
		filters = append(filters, vectorstore.Filter{Field: "importance", Op: vectorstore.OpGte, Value: *f.MinImportance})
	}
	if len(f.TagsAny) > 0 {
		filters = append(filters, vectorstore.Filter{Field: "tags", Op: vectorstore.OpAny, Value: f.TagsAny})
	}
	return s.search(ctx, embedding.RoleSemantic, vectorstore.CollectionMemories, query, k, filters)
}

// CodeFilter narrows search_code (spec.md §4.H).
type CodeFilter struct {
	Project  string
	Language string
	UnitType string
}

// SearchCode embeds query via the code embedder and searches `code_units`.
func (s *Searcher) SearchCode(ctx context.Context, query string, k int, f CodeFilter) ([]vectorstore.Result, error) {
	var filters []vectorstore.Filter
	if f.Project != "" {
		filters = append(filters, vectorstore.Filter{Field: "project", Op: vectorstore.OpEq, Value: f.Project})
	}
	if f.Language != "" {
		filters = append(filters, vectorstore.Filter{Field: "language", Op: vectorstore.OpEq, Value: f.Language})
	}
	if f.UnitType != "" {
		filters = append(filters, vectorstore.Filter{Field: "unit_type", Op: vectorstore.OpEq, Value: f.UnitType})
	}
	return s.search(ctx, embedding.RoleCode, vectorstore.CollectionCodeUnits, query, k, filters)
}

// ExperienceFilter narrows search_experiences (spec.md §4.H).
type ExperienceFilter struct {
	Domain   ghap.Domain
	Strategy ghap.Strategy
	Outcome  ghap.OutcomeStatus
}

// SearchExperiences embeds query via the semantic embedder and searches
// ghap_{axis}, filtered by domain, strategy, and outcome.
func (s *Searcher) SearchExperiences(ctx context.Context, axis ghap.Axis, query string, k int, f ExperienceFilter) ([]vectorstore.Result, error) {
	collection := vectorstore.GHAPCollection(axis)
	var filters []vectorstore.Filter
	if f.Domain != "" {
		filters = append(filters, vectorstore.Filter{Field: "domain", Op: vectorstore.OpEq, Value: string(f.Domain)})
	}
	if f.Strategy != "" {
		filters = append(filters, vectorstore.Filter{Field: "strategy", Op: vectorstore.OpEq, Value: string(f.Strategy)})
	}
	if f.Outcome != "" {
		filters = append(filters, vectorstore.Filter{Field: "outcome_status", Op: vectorstore.OpEq, Value: string(f.Outcome)})
	}
	return s.search(ctx, embedding.RoleSemantic, collection, query, k, filters)
}

// SearchValues embeds query via the semantic embedder and searches
// `values`, optionally filtered by axis.
func (s *Searcher) SearchValues(ctx context.Context, query string, k int, axis ghap.Axis) ([]vectorstore.Result, error) {
	var filters []vectorstore.Filter
	if axis != "" {
		filters = append(filters, vectorstore.Filter{Field: "axis", Op: vectorstore.OpEq, Value: string(axis)})
	}
	return s.search(ctx, embedding.RoleSemantic, vectorstore.CollectionValues, query, k, filters)
}

// CommitFilter narrows search_commits (spec.md §4.H).
type CommitFilter struct {
	Author string
	Since  *int64 // unix seconds, inclusive
	Until  *int64 // unix seconds, inclusive
}

// SearchCommits embeds query via the semantic embedder and searches
// `commits`, filtered by author and a [since, until] timestamp window.
func (s *Searcher) SearchCommits(ctx context.Context, query string, k int, f CommitFilter) ([]vectorstore.Result, error) {
	var filters []vectorstore.Filter
	if f.Author != "" {
		filters = append(filters, vectorstore.Filter{Field: "author", Op: vectorstore.OpEq, Value: f.Author})
	}
	switch {
	case f.Since != nil && f.Until != nil:
		filters = append(filters, vectorstore.Filter{Field: "timestamp", Op: vectorstore.OpRange, Value: vectorstore.Range{Min: *f.Since, Max: *f.Until}})
	case f.Since != nil:
		filters = append(filters, vectorstore.Filter{Field: "timestamp", Op: vectorstore.OpGte, Value: *f.Since})
	case f.Until != nil:
		filters = append(filters, vectorstore.Filter{Field: "timestamp", Op: vectorstore.OpLte, Value: *f.Until})
	}
	return s.search(ctx, embedding.RoleSemantic, vectorstore.CollectionCommits, query, k, filters)
}

func (s *Searcher) search(ctx context.Context, role embedding.Role, collection, query string, k int, filters []vectorstore.Filter) ([]vectorstore.Result, error) {
	if k <= 0 {
		k = DefaultLimit
	}
	vec, err := s.registry.EmbedOne(ctx, role, query)
	if err != nil {
		return nil, err
	}
	return s.store.Search(ctx, collection, vec, k, filters)
}
