package journal

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/ghap"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	return j
}

func TestCreateGHAPRequiresNoActive(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.StartSession()
	require.NoError(t, err)

	_, err = j.CreateGHAP(ghap.DomainDebugging, ghap.StrategyBisection, "fix flaky test", "timing", "add sleep", "passes 3/3")
	require.NoError(t, err)

	_, err = j.CreateGHAP(ghap.DomainDebugging, ghap.StrategyBisection, "another goal", "h", "a", "p")
	require.Error(t, err)
	assert.True(t, calmerr.Is(err, calmerr.KindInvalidState))
}

func TestCreateGHAPValidatesEnums(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.StartSession()
	require.NoError(t, err)

	_, err = j.CreateGHAP(ghap.Domain("not-a-domain"), ghap.StrategyBisection, "g", "h", "a", "p")
	require.Error(t, err)
	assert.True(t, calmerr.Is(err, calmerr.KindValidation))
}

func TestGHAPOrphanLifecycle(t *testing.T) {
	j := openTestJournal(t)

	s1, err := j.StartSession()
	require.NoError(t, err)

	entry, err := j.CreateGHAP(ghap.DomainDebugging, ghap.StrategyBisection, "fix flaky test", "timing", "add sleep", "passes 3/3")
	require.NoError(t, err)
	assert.Equal(t, s1, entry.SessionID)

	// simulate process crash: new session starts without resolving
	s2, err := j.StartSession()
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)

	orphan, err := j.GetOrphanedGHAP()
	require.NoError(t, err)
	require.NotNil(t, orphan)
	assert.Equal(t, s1, orphan.SessionID)

	// idempotent
	orphan2, err := j.GetOrphanedGHAP()
	require.NoError(t, err)
	require.NotNil(t, orphan2)
	assert.Equal(t, orphan.ID, orphan2.ID)

	resolved, err := j.AbandonOrphan("session ended")
	require.NoError(t, err)
	assert.Equal(t, ghap.OutcomeAbandoned, resolved.Outcome.Status)
	assert.Equal(t, ghap.TierAbandoned, resolved.ConfidenceTier)

	none, err := j.GetOrphanedGHAP()
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = os.Stat(filepath.Join(j.dir, currentFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestAdoptOrphanRewritesSessionID(t *testing.T) {
	j := openTestJournal(t)
	s1, err := j.StartSession()
	require.NoError(t, err)
	_, err = j.CreateGHAP(ghap.DomainTesting, ghap.StrategyInstrumentation, "g", "h", "a", "p")
	require.NoError(t, err)

	s2, err := j.StartSession()
	require.NoError(t, err)

	adopted, err := j.AdoptOrphan()
	require.NoError(t, err)
	assert.Equal(t, s2, adopted.SessionID)
	assert.NotEqual(t, s1, adopted.SessionID)

	none, err := j.GetOrphanedGHAP()
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpdateGHAPIterationMonotonicity(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.StartSession()
	require.NoError(t, err)
	_, err = j.CreateGHAP(ghap.DomainDebugging, ghap.StrategyBisection, "g", "timing", "add sleep", "passes 3/3")
	require.NoError(t, err)

	newH := "test isolation, not timing"
	updated, err := j.UpdateGHAP(UpdateInput{Hypothesis: &newH})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.IterationCount)
	require.Len(t, updated.History, 1)
	assert.Equal(t, "timing", updated.History[0].Hypothesis)

	sameH := newH
	updated, err = j.UpdateGHAP(UpdateInput{Hypothesis: &sameH})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.IterationCount, "no-op update must not increment iteration_count")
}

func TestResolveGHAPAppendsAndClears(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.StartSession()
	require.NoError(t, err)
	_, err = j.CreateGHAP(ghap.DomainTesting, ghap.StrategyBisection, "g", "h", "a", "p")
	require.NoError(t, err)

	resolved, err := j.ResolveGHAP(ResolveInput{
		Status:     ghap.OutcomeFalsified,
		Result:     "hypothesis wrong",
		Surprise:   "test isolation, not timing",
		RootCause:  &ghap.RootCause{Category: "wrong-assumption", Description: "assumed intermittent=timing"},
		Lesson:     &ghap.Lesson{WhatWorked: "bisecting the test order", Takeaway: "isolate before timing-fix"},
	})
	require.NoError(t, err)
	assert.Equal(t, ghap.OutcomeFalsified, resolved.Outcome.Status)

	_, err = os.Stat(filepath.Join(j.dir, currentFileName))
	assert.True(t, os.IsNotExist(err))

	f, err := os.Open(filepath.Join(j.dir, sessionLogName))
	require.NoError(t, err)
	defer f.Close()
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
	}
	assert.Equal(t, 1, lines)

	_, err = j.ResolveGHAP(ResolveInput{Status: ghap.OutcomeConfirmed, Result: "n/a"})
	require.Error(t, err)
	assert.True(t, calmerr.Is(err, calmerr.KindInvalidState))
}

func TestStartSessionArchivesPriorLog(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.StartSession()
	require.NoError(t, err)
	_, err = j.CreateGHAP(ghap.DomainTesting, ghap.StrategyBisection, "g", "h", "a", "p")
	require.NoError(t, err)
	_, err = j.ResolveGHAP(ResolveInput{Status: ghap.OutcomeConfirmed, Result: "ok"})
	require.NoError(t, err)

	_, err = j.StartSession()
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(j.dir, archiveDirName))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = os.Stat(filepath.Join(j.dir, sessionLogName))
	assert.True(t, os.IsNotExist(err), "a fresh session starts with no session log until something resolves")
}

func TestToolCount(t *testing.T) {
	j := openTestJournal(t)

	should, err := j.ShouldCheckIn(3)
	require.NoError(t, err)
	assert.False(t, should)

	for i := 0; i < 3; i++ {
		_, err := j.IncrementToolCount()
		require.NoError(t, err)
	}

	should, err = j.ShouldCheckIn(3)
	require.NoError(t, err)
	assert.True(t, should)

	require.NoError(t, j.ResetToolCount())
	should, err = j.ShouldCheckIn(3)
	require.NoError(t, err)
	assert.False(t, should)
}
