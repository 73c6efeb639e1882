package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

func TestEmbedderProbeSucceedsWithMockEmbedder(t *testing.T) {
	registry := embedding.NewRegistry(embedding.NewMockEmbedder(embedding.CodeDim), embedding.NewMockEmbedder(embedding.SemanticDim))
	probe := EmbedderProbe(registry, embedding.RoleSemantic)
	assert.NoError(t, probe(context.Background()))
}

func TestStoreProbeSucceedsAgainstExistingCollection(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()
	_, err := store.CreateCollection(ctx, vectorstore.CollectionMemories, embedding.SemanticDim, vectorstore.MetricCosine)
	require.NoError(t, err)

	probe := StoreProbe(store, vectorstore.CollectionMemories)
	assert.NoError(t, probe(ctx))
}

func TestStoreProbeFailsAgainstMissingCollection(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	probe := StoreProbe(store, "does-not-exist")
	assert.Error(t, probe(context.Background()))
}

func TestJournalProbeSucceedsOnWritableDir(t *testing.T) {
	dir := t.TempDir()
	probe := JournalProbe(dir)
	assert.NoError(t, probe(context.Background()))
	_, err := os.Stat(filepath.Join(dir, ".health_probe"))
	assert.True(t, os.IsNotExist(err), "probe marker should be cleaned up")
}

func TestJournalProbeFailsOnMissingDir(t *testing.T) {
	probe := JournalProbe(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, probe(context.Background()))
}
