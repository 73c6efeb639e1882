package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWithDefaultsKeepsUnsetFields(t *testing.T) {
	merged, err := mergeWithDefaults(&Config{BatchSize: 99})
	require.NoError(t, err)
	assert.Equal(t, 99, merged.BatchSize)
	assert.Equal(t, DefaultConfig().SemanticModel, merged.SemanticModel)
	assert.Equal(t, DefaultConfig().Retention.ArchiveRetentionDays, merged.Retention.ArchiveRetentionDays)
}

func TestMergeWithDefaultsOverridesNestedRetention(t *testing.T) {
	merged, err := mergeWithDefaults(&Config{Retention: &RetentionConfig{ArchiveRetentionDays: 7}})
	require.NoError(t, err)
	assert.Equal(t, 7, merged.Retention.ArchiveRetentionDays)
	// CleanupInterval wasn't set on the loaded side, default survives.
	assert.Equal(t, DefaultConfig().Retention.CleanupInterval, merged.Retention.CleanupInterval)
}

func TestMergeWithDefaultsMergesSourceWeightsByKey(t *testing.T) {
	merged, err := mergeWithDefaults(&Config{SourceWeights: map[string]float64{"commits": 3}})
	require.NoError(t, err)
	assert.Equal(t, 3.0, merged.SourceWeights["commits"])
	assert.Equal(t, DefaultConfig().SourceWeights["memories"], merged.SourceWeights["memories"])
}
