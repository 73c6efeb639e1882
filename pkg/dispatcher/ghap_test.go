package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/calm/pkg/ghap"
	"github.com/codeready-toolchain/calm/pkg/vectorstore"
)

// TestGHAPOrphanLifecycle mirrors spec.md §8 scenario S2.
func TestGHAPOrphanLifecycle(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	_, err := startSession(ctx, d, mustJSON(t, struct{}{}))
	require.NoError(t, err)

	_, err = createGHAP(ctx, d, mustJSON(t, createGHAPArgs{
		Domain: ghap.DomainDebugging, Strategy: ghap.StrategyBisection,
		Goal: "fix flaky test", Hypothesis: "timing", Action: "add sleep", Prediction: "passes 3/3",
	}))
	require.NoError(t, err)

	// Simulate a crash: start a new session without resolving the prior one.
	_, err = startSession(ctx, d, mustJSON(t, struct{}{}))
	require.NoError(t, err)

	orphan, err := getOrphanedGHAP(ctx, d, mustJSON(t, struct{}{}))
	require.NoError(t, err)
	orphanMap := orphan.(map[string]any)
	require.NotNil(t, orphanMap["orphan"])

	_, err = abandonOrphan(ctx, d, mustJSON(t, abandonOrphanArgs{Reason: "session ended"}))
	require.NoError(t, err)

	orphan, err = getOrphanedGHAP(ctx, d, mustJSON(t, struct{}{}))
	require.NoError(t, err)
	orphanMap = orphan.(map[string]any)
	assert.Nil(t, orphanMap["orphan"])
}

func TestCreateGHAPRejectsUnrecognizedDomain(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := startSession(context.Background(), d, mustJSON(t, struct{}{}))
	require.NoError(t, err)

	_, err = createGHAP(context.Background(), d, mustJSON(t, createGHAPArgs{
		Domain: "not-a-domain", Strategy: ghap.StrategyBisection, Goal: "g",
	}))
	assert.Error(t, err)
}

// TestResolveGHAPPersistsAllFalsifiedAxes mirrors spec.md §8 scenario S3.
func TestResolveGHAPPersistsAllFalsifiedAxes(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	_, err := startSession(ctx, d, mustJSON(t, struct{}{}))
	require.NoError(t, err)
	_, err = createGHAP(ctx, d, mustJSON(t, createGHAPArgs{
		Domain: ghap.DomainDebugging, Strategy: ghap.StrategyBisection,
		Goal: "fix flaky test", Hypothesis: "timing", Action: "add sleep", Prediction: "passes 3/3",
	}))
	require.NoError(t, err)

	resolved, err := resolveGHAP(ctx, d, mustJSON(t, resolveGHAPArgs{
		Status: ghap.OutcomeFalsified, Result: "still flaky",
		Surprise: "test isolation, not timing",
		RootCause: &ghap.RootCause{Category: "wrong-assumption", Description: "assumed intermittent=timing"},
		Lesson:    &ghap.Lesson{WhatWorked: "bisection", Takeaway: "isolate before timing"},
	}))
	require.NoError(t, err)
	entry := resolved.(*ghap.Entry)

	for _, collection := range []string{
		vectorstore.CollectionGHAPFull, vectorstore.CollectionGHAPStrategy,
		vectorstore.CollectionGHAPSurprise, vectorstore.CollectionGHAPRootCause,
	} {
		point, err := d.Store.Get(ctx, collection, entry.ID)
		require.NoError(t, err)
		require.NotNilf(t, point, "expected %s to contain entry %s", collection, entry.ID)
	}
}

func TestToolCountHooks(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	_, err := startSession(ctx, d, mustJSON(t, struct{}{}))
	require.NoError(t, err)

	due, err := shouldCheckIn(ctx, d, mustJSON(t, checkInArgs{Frequency: 2}))
	require.NoError(t, err)
	assert.False(t, due.(map[string]bool)["due"])

	for i := 0; i < 2; i++ {
		_, err := incrementToolCount(ctx, d, mustJSON(t, struct{}{}))
		require.NoError(t, err)
	}
	due, err = shouldCheckIn(ctx, d, mustJSON(t, checkInArgs{Frequency: 2}))
	require.NoError(t, err)
	assert.True(t, due.(map[string]bool)["due"])

	_, err = resetToolCount(ctx, d, mustJSON(t, struct{}{}))
	require.NoError(t, err)
	due, err = shouldCheckIn(ctx, d, mustJSON(t, checkInArgs{Frequency: 2}))
	require.NoError(t, err)
	assert.False(t, due.(map[string]bool)["due"])
}
