package metadata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemoryRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := MemoryRecord{ID: "m1", Content: "prefer explicit error types", Category: "preference", Importance: 0.8, Tags: []string{"go"}, CreatedAt: 100, Project: "calm"}
	require.NoError(t, s.PutMemory(rec))

	got, err := s.GetMemory("m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)

	require.NoError(t, s.DeleteMemory("m1"))
	require.NoError(t, s.DeleteMemory("m1"), "delete must be idempotent")

	got, err = s.GetMemory("m1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListMemoriesFiltersByProject(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutMemory(MemoryRecord{ID: "a", Project: "calm"}))
	require.NoError(t, s.PutMemory(MemoryRecord{ID: "b", Project: "other"}))

	all, err := s.ListMemories("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	calmOnly, err := s.ListMemories("calm")
	require.NoError(t, err)
	require.Len(t, calmOnly, 1)
	assert.Equal(t, "a", calmOnly[0].ID)
}

func TestGHAPIndexRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := GHAPIndexRecord{EntryID: "e1", SessionID: "s1", Domain: "debugging", Strategy: "bisection", OutcomeStatus: "CONFIRMED", ConfidenceTier: "GOLD", IterationCount: 2, CreatedAt: 1, CapturedAt: 2}
	require.NoError(t, s.PutGHAPIndex(rec))

	got, err := s.GetGHAPIndex("e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)

	missing, err := s.GetGHAPIndex("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := openTestStore(t)

	cp := Checkpoint{Project: "calm", FilePath: "pkg/foo/foo.go", Hash: "abc123", MTime: 1000, UnitCount: 3}
	require.NoError(t, s.PutCheckpoint(cp))

	got, err := s.GetCheckpoint("calm", "pkg/foo/foo.go")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cp, *got)

	got, err = s.GetCheckpoint("calm", "pkg/bar/bar.go")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommitCursor(t *testing.T) {
	s := openTestStore(t)

	sha, err := s.CommitCursor("calm")
	require.NoError(t, err)
	assert.Empty(t, sha)

	require.NoError(t, s.SetCommitCursor("calm", "deadbeef"))
	sha, err = s.CommitCursor("calm")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", sha)
}
