package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
)

func TestSearchExperiencesRejectsUnrecognizedAxis(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := searchExperiences(context.Background(), d, mustJSON(t, searchExperiencesArgs{
		Axis: "not-an-axis", Query: "debugging flakes",
	}))
	assert.Error(t, err)
}

func TestSearchExperiencesEmptyResultIsNotAnError(t *testing.T) {
	d := newTestDispatcher(t)
	result, err := searchExperiences(context.Background(), d, mustJSON(t, searchExperiencesArgs{
		Axis: ghap.AxisFull, Query: "debugging flakes",
	}))
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRunClusterSurfacesInsufficientData(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := runCluster(context.Background(), d, mustJSON(t, runClusterArgs{Axis: ghap.AxisStrategy}))
	require.Error(t, err)
	assert.True(t, calmerr.Is(err, calmerr.KindInsufficientData))
}
