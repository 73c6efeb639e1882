// Package dispatcher provides the reference tool-dispatcher wiring spec.md
// §6 names only as a collaborator ("a pure function of (arguments,
// services)"). It exposes each of the ten components' operations as a
// named entry in a dispatch table, so the core is runnable end-to-end
// without implementing a full protocol surface (auth, streaming, etc. stay
// out of scope).
package dispatcher

import (
	"context"
	"encoding/json"

	calmcontext "github.com/codeready-toolchain/calm/pkg/context"
	"github.com/codeready-toolchain/calm/pkg/cluster"
	"github.com/codeready-toolchain/calm/pkg/config"
	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/events"
	"github.com/codeready-toolchain/calm/pkg/health"
	"github.com/codeready-toolchain/calm/pkg/journal"
	"github.com/codeready-toolchain/calm/pkg/metadata"
	"github.com/codeready-toolchain/calm/pkg/persister"
	"github.com/codeready-toolchain/calm/pkg/search"
	"github.com/codeready-toolchain/calm/pkg/session"
	"github.com/codeready-toolchain/calm/pkg/values"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// Dispatcher wires the ten components together and exposes their
// operations through a single named-operation table.
type Dispatcher struct {
	Config *config.Config

	Registry  *embedding.Registry
	Store     vectorstore.Store
	Metadata  *metadata.Store
	Journal   *journal.Journal
	Session   *session.Manager
	Persister *persister.Persister
	Cluster   *cluster.Service
	Values    *values.Service
	Searcher  *search.Searcher
	Assembler *calmcontext.Assembler
	Publisher *events.Publisher
	Health    *health.Checker
}

// Operation is one named dispatcher entry: a pure function of raw JSON
// arguments and the wired services, returning a JSON-serializable result.
type Operation func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (any, error)

// operations is the 27-entry dispatch table. Keys are the names hook
// scripts and the hypothetical tool-calling protocol use.
var operations = map[string]Operation{
	"create_memory":  createMemory,
	"get_memory":     getMemory,
	"delete_memory":  deleteMemory,
	"list_memories":  listMemories,
	"search_memories": searchMemories,

	"upsert_code_unit": upsertCodeUnit,
	"delete_code_unit": deleteCodeUnit,
	"search_code":      searchCode,

	"upsert_commit": upsertCommit,
	"search_commits": searchCommits,

	"start_session":        startSession,
	"get_orphaned_ghap":    getOrphanedGHAP,
	"adopt_orphan":         adoptOrphan,
	"abandon_orphan":       abandonOrphan,
	"create_ghap":          createGHAP,
	"update_ghap":          updateGHAP,
	"resolve_ghap":         resolveGHAP,
	"should_check_in":      shouldCheckIn,
	"increment_tool_count": incrementToolCount,
	"reset_tool_count":     resetToolCount,

	"search_experiences": searchExperiences,
	"run_cluster":        runCluster,

	"validate_value": validateValue,
	"store_value":    storeValue,
	"list_values":    listValues,
	"search_values":  searchValues,

	"assemble_context": assembleContext,
}

// Lookup returns the named operation, or nil if name is not registered.
func Lookup(name string) Operation {
	return operations[name]
}

// Names returns every registered operation name, for introspection
// endpoints and tests.
func Names() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	return names
}

// Dispatch looks up name and invokes it with raw against d. NotFound is
// returned for an unregistered operation name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	op := Lookup(name)
	if op == nil {
		return nil, unknownOperationError(name)
	}
	return op(ctx, d, raw)
}
