package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatorSteadyStateStaysNearZero(t *testing.T) {
	t.Parallel()
	e := New(0.3, 0.05, 20)
	for i := 0; i < 50; i++ {
		desync, warn := e.Update(0, 1.0/50)
		require.False(t, warn)
		assert.InDelta(t, 0, desync, 1e-9)
	}
}

func TestEstimatorTracksConstantSkew(t *testing.T) {
	t.Parallel()
	e := New(0.3, 0.05, 20)
	var desync float64
	for i := 0; i < 200; i++ {
		desync, _ = e.Update(0.05, 1.0)
	}
	assert.Greater(t, desync, 0.0)
	assert.LessOrEqual(t, desync, 20.0)
}

func TestEstimatorClampsAndWarnsOnce(t *testing.T) {
	t.Parallel()
	e := New(1, 1, 1)
	warned := 0
	for i := 0; i < 10; i++ {
		desync, warn := e.Update(5, 1)
		assert.LessOrEqual(t, desync, 1.0)
		if warn {
			warned++
		}
	}
	assert.Equal(t, 1, warned)
}

func TestEstimatorResetClearsStateAndWarnLatch(t *testing.T) {
	t.Parallel()
	e := New(1, 1, 1)
	e.Update(5, 1)
	require.NotZero(t, e.Desync())

	e.Reset()
	assert.Zero(t, e.Desync())

	_, warn := e.Update(5, 1)
	assert.True(t, warn, "warn latch should re-arm after Reset")
}

func TestRatioMirrorsDesync(t *testing.T) {
	t.Parallel()
	e := New(0.3, 0.05, 20)
	e.Update(0.1, 1)
	assert.Equal(t, e.Desync(), e.Ratio())
}
