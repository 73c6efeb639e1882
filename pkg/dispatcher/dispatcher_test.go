package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

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

// newTestDispatcher builds a fully-wired Dispatcher over an in-memory
// vector store, a temp-dir journal, and a temp-file metadata store, mocked
// embedders throughout (the only variant permitted in tests, spec.md §4.A).
func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	ctx := context.Background()

	store := vectorstore.NewMemoryStore()
	for _, name := range []struct {
		collection string
		dim        int
	}{
		{vectorstore.CollectionMemories, embedding.SemanticDim},
		{vectorstore.CollectionCodeUnits, embedding.CodeDim},
		{vectorstore.CollectionCommits, embedding.SemanticDim},
		{vectorstore.CollectionGHAPFull, embedding.SemanticDim},
		{vectorstore.CollectionGHAPStrategy, embedding.SemanticDim},
		{vectorstore.CollectionGHAPSurprise, embedding.SemanticDim},
		{vectorstore.CollectionGHAPRootCause, embedding.SemanticDim},
		{vectorstore.CollectionValues, embedding.SemanticDim},
	} {
		_, err := store.CreateCollection(ctx, name.collection, name.dim, vectorstore.MetricCosine)
		require.NoError(t, err)
	}

	registry := embedding.NewRegistry(embedding.NewMockEmbedder(embedding.CodeDim), embedding.NewMockEmbedder(embedding.SemanticDim))

	metadataStore, err := metadata.Open(t.TempDir() + "/metadata.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = metadataStore.Close() })

	j, err := journal.Open(t.TempDir())
	require.NoError(t, err)

	bus := events.NewBus()
	searcher := search.New(store, registry)

	checker := health.NewChecker()
	checker.Register("embedder", health.EmbedderProbe(registry, embedding.RoleSemantic))

	return &Dispatcher{
		Config:    config.DefaultConfig(),
		Registry:  registry,
		Store:     store,
		Metadata:  metadataStore,
		Journal:   j,
		Session:   session.NewManager(j),
		Persister: persister.New(store, registry),
		Cluster:   cluster.New(store),
		Values:    values.New(store, registry),
		Searcher:  searcher,
		Assembler: calmcontext.New(searcher, calmcontext.DefaultConfig()),
		Publisher: events.NewPublisher(bus),
		Health:    checker,
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestLookupReturnsNilForUnregisteredOperation(t *testing.T) {
	require.Nil(t, Lookup("does_not_exist"))
}

func TestNamesIncludesEveryComponentsOperations(t *testing.T) {
	names := Names()
	for _, want := range []string{
		"create_memory", "search_memories", "start_session", "create_ghap",
		"resolve_ghap", "run_cluster", "validate_value", "store_value",
		"assemble_context",
	} {
		require.Contains(t, names, want)
	}
}

func TestDispatchUnknownOperationReturnsNotFound(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), "bogus_operation", json.RawMessage(`{}`))
	require.Error(t, err)
	status, body := mapOperationError(err)
	require.Equal(t, 404, status)
	require.Equal(t, "not_found", body.Error.Type)
}
