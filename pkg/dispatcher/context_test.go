package dispatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calmcontext "github.com/codeready-toolchain/calm/pkg/context"
)

// TestAssembleContextOverEmptyStore mirrors part of spec.md §8 scenario S5,
// confirming assemble runs end to end through the dispatcher boundary.
func TestAssembleContextOverEmptyStore(t *testing.T) {
	d := newTestDispatcher(t)
	result, err := assembleContext(context.Background(), d, mustJSON(t, assembleContextArgs{
		Query: "debugging flakes", TokenBudget: 1200,
	}))
	require.NoError(t, err)
	assembled := result.(calmcontext.Result)
	assert.NotNil(t, assembled.Counts)
}

func TestAssembleContextRejectsZeroBudget(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := assembleContext(context.Background(), d, mustJSON(t, assembleContextArgs{
		Query: "debugging flakes", TokenBudget: 0,
	}))
	assert.Error(t, err)
}

func TestAssembleContextRejectsUnrecognizedMode(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := assembleContext(context.Background(), d, mustJSON(t, assembleContextArgs{
		Query: "debugging flakes", TokenBudget: 1200, Mode: "bogus",
	}))
	assert.Error(t, err)
}
