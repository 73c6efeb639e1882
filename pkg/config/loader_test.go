package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCalmYAML(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "calm.yaml"), []byte(content), 0o644))
}

func TestInitializeMissingDirFallsBackToDefaults(t *testing.T) {
	cfg, err := Initialize(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().CodeModel, cfg.CodeModel)
	assert.Equal(t, DefaultConfig().BatchSize, cfg.BatchSize)
}

func TestInitializeLoadsAndOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeCalmYAML(t, dir, `
calm_dir: /srv/calm
batch_size: 64
similarity_threshold: 0.9
`)
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/calm", cfg.CalmDir)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, 0.9, cfg.SimilarityThreshold)
	// Untouched keys keep the built-in default.
	assert.Equal(t, DefaultConfig().CodeModel, cfg.CodeModel)
	assert.Equal(t, DefaultConfig().Retention.ArchiveRetentionDays, cfg.Retention.ArchiveRetentionDays)
}

func TestInitializeExpandsEnvPlaceholders(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALM_TEST_CODE_MODEL", "custom/code-model")
	writeCalmYAML(t, dir, `code_model: ${CALM_TEST_CODE_MODEL}`)
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "custom/code-model", cfg.CodeModel)
}

func TestInitializeEnvOverridePrefixWins(t *testing.T) {
	dir := t.TempDir()
	writeCalmYAML(t, dir, `batch_size: 64`)
	t.Setenv("CALM_BATCH_SIZE", "128")
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.BatchSize)
}

func TestInitializeRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeCalmYAML(t, dir, "not: [valid")
	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}

func TestInitializeRejectsOutOfRangeSimilarityThreshold(t *testing.T) {
	dir := t.TempDir()
	writeCalmYAML(t, dir, `similarity_threshold: 1.5`)
	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "similarity_threshold")
}

func TestConfigDirAndExpandHome(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ConfigDir())

	resolved, err := cfg.ResolvedCalmDir()
	require.NoError(t, err)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".calm"), resolved)
}
