package vectorstore

import "github.com/codeready-toolchain/calm/pkg/ghap"

// Collection names fixed by spec.md §3 — shared across every component that
// names a collection directly (Persister, Clusterer, Value Store, Searcher).
const (
	CollectionMemories      = "memories"
	CollectionCodeUnits     = "code_units"
	CollectionCommits       = "commits"
	CollectionGHAPFull      = "ghap_full"
	CollectionGHAPStrategy  = "ghap_strategy"
	CollectionGHAPSurprise  = "ghap_surprise"
	CollectionGHAPRootCause = "ghap_root_cause"
	CollectionValues        = "values"
)

// GHAPCollection maps a GHAP axis to its collection name.
func GHAPCollection(axis ghap.Axis) string {
	switch axis {
	case ghap.AxisFull:
		return CollectionGHAPFull
	case ghap.AxisStrategy:
		return CollectionGHAPStrategy
	case ghap.AxisSurprise:
		return CollectionGHAPSurprise
	case ghap.AxisRootCause:
		return CollectionGHAPRootCause
	default:
		return ""
	}
}
