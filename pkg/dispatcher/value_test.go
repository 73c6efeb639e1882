package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/calm/pkg/embedding"
	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/values"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// seedStrategyCluster seeds 5 ghap_strategy members sharing one cluster
// label, all carrying the same vector the mock embedder would produce for
// candidateText, so validate's distance-to-centroid is exactly zero.
func seedStrategyCluster(t *testing.T, d *Dispatcher, candidateText string, label int) {
	t.Helper()
	ctx := context.Background()
	embedder, err := d.Registry.For(embedding.RoleSemantic)
	require.NoError(t, err)
	vec, err := embedder.EmbedOne(ctx, candidateText)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		err := d.Store.Upsert(ctx, vectorstore.CollectionGHAPStrategy, vectorstore.Point{
			ID:     uuidLike(i),
			Vector: vec,
			Payload: vectorstore.Payload{
				"confidence_tier":       string(ghap.TierGold),
				"cluster_label_strategy": label,
			},
		})
		require.NoError(t, err)
	}
}

func uuidLike(i int) string {
	return "member-" + string(rune('a'+i))
}

func TestValidateThenStoreValue(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	candidateText := "Check test isolation before adding sleeps"
	clusterID := values.MakeClusterID(ghap.AxisStrategy, 1)
	seedStrategyCluster(t, d, candidateText, 1)

	validated, err := validateValue(ctx, d, mustJSON(t, validateValueArgs{Text: candidateText, ClusterID: clusterID}))
	require.NoError(t, err)
	result := validated.(values.ValidateResult)
	assert.True(t, result.Valid)

	stored, err := storeValue(ctx, d, mustJSON(t, storeValueArgs{Text: candidateText, Axis: ghap.AxisStrategy, ClusterID: clusterID}))
	require.NoError(t, err)
	value := stored.(*values.Value)
	assert.Equal(t, candidateText, value.Text)
	assert.Equal(t, ghap.AxisStrategy, value.Axis)

	list, err := listValues(ctx, d, mustJSON(t, listValuesArgs{Axis: ghap.AxisStrategy}))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStoreValueWithoutPriorValidateFails(t *testing.T) {
	d := newTestDispatcher(t)
	clusterID := values.MakeClusterID(ghap.AxisStrategy, 1)
	_, err := storeValue(context.Background(), d, mustJSON(t, storeValueArgs{
		Text: "never validated", Axis: ghap.AxisStrategy, ClusterID: clusterID,
	}))
	assert.Error(t, err)
}

func TestValidateValueRejectsEmptyClusterID(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := validateValue(context.Background(), d, mustJSON(t, validateValueArgs{Text: "some text"}))
	assert.Error(t, err)
}
