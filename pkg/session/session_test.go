package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/calm/pkg/journal"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	j, err := journal.Open(t.TempDir())
	require.NoError(t, err)
	return NewManager(j)
}

func TestStartSessionReturnsNewID(t *testing.T) {
	m := newTestManager(t)
	id, err := m.StartSession()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	second, err := m.StartSession()
	require.NoError(t, err)
	assert.NotEqual(t, id, second)
}

func TestGetOrphanedGHAPNilWhenNoneActive(t *testing.T) {
	m := newTestManager(t)
	_, err := m.StartSession()
	require.NoError(t, err)

	entry, err := m.GetOrphanedGHAP()
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestToolCountLifecycle(t *testing.T) {
	m := newTestManager(t)
	_, err := m.StartSession()
	require.NoError(t, err)

	should, err := m.ShouldCheckIn(3)
	require.NoError(t, err)
	assert.False(t, should)

	for i := 0; i < 3; i++ {
		_, err := m.IncrementToolCount()
		require.NoError(t, err)
	}

	should, err = m.ShouldCheckIn(3)
	require.NoError(t, err)
	assert.True(t, should)

	require.NoError(t, m.ResetToolCount())
	should, err = m.ShouldCheckIn(3)
	require.NoError(t, err)
	assert.False(t, should)
}
