package engine_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/alejandrodnm/pairbot/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestComputeSpread_ExactHedgeRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	n := 200
	x := randomWalk(rng, n, 100)
	y := make([]float64, n)
	for i := range x {
		y[i] = 1.5 * x[i]
	}
	table := domain.NewPriceTable(days(n), map[string][]float64{"X": x, "Y": y})

	s, err := engine.ComputeSpread(table, "X", "Y", 20)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, s.HedgeRatio, 1e-6)
	require.Len(t, s.Points, n)
	for _, p := range s.Points {
		assert.InDelta(t, 0.0, p.Spread, 1e-9)
		assert.False(t, p.Valid, "constant spread has no z-score")
		assert.False(t, math.IsNaN(p.ZScore))
	}

	sig := engine.GenerateSignals(s, 2, 0.5)
	for _, p := range sig.Points {
		assert.Equal(t, domain.SignalFlat, p.Signal)
		assert.Equal(t, domain.SignalFlat, p.Position)
	}
}

func TestComputeSpread_WindowWarmup(t *testing.T) {
	table := cointegratedTable(17, 120, 2)
	lookback := 30

	s, err := engine.ComputeSpread(table, "X", "Y", lookback)
	require.NoError(t, err)
	require.Len(t, s.Points, 120)

	for i, p := range s.Points {
		if i < lookback-1 {
			assert.False(t, p.Valid, "index %d", i)
			continue
		}
		require.True(t, p.Valid, "index %d", i)
		assert.False(t, math.IsNaN(p.ZScore))
		assert.False(t, math.IsInf(p.ZScore, 0))
	}
}

func TestComputeSpread_TrailingWindow(t *testing.T) {
	table := cointegratedTable(17, 120, 2)
	lookback := 25

	s, err := engine.ComputeSpread(table, "X", "Y", lookback)
	require.NoError(t, err)

	spreads := make([]float64, len(s.Points))
	for i, p := range s.Points {
		spreads[i] = p.Spread
	}
	for _, i := range []int{lookback - 1, 60, 119} {
		mean, std := stat.MeanStdDev(spreads[i-lookback+1:i+1], nil)
		assert.InDelta(t, (spreads[i]-mean)/std, s.Points[i].ZScore, 1e-9, "index %d", i)
	}
}

func TestComputeSpread_InterceptNotSubtracted(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := 200
	x := randomWalk(rng, n, 100)
	y := make([]float64, n)
	for i := range x {
		y[i] = 10 + 2*x[i] + 0.1*rng.NormFloat64()
	}
	table := domain.NewPriceTable(days(n), map[string][]float64{"X": x, "Y": y})

	s, err := engine.ComputeSpread(table, "X", "Y", 20)
	require.NoError(t, err)

	sum := 0.0
	for _, p := range s.Points {
		sum += p.Spread
	}
	assert.InDelta(t, 10.0, sum/float64(n), 0.5)
	assert.InDelta(t, 10.0, s.Intercept, 0.5)
}

func TestComputeSpread_Idempotent(t *testing.T) {
	table := cointegratedTable(8, 150, 1.3)

	a, err := engine.ComputeSpread(table, "X", "Y", 40)
	require.NoError(t, err)
	b, err := engine.ComputeSpread(table, "X", "Y", 40)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeSpread_InsufficientData(t *testing.T) {
	table := cointegratedTable(8, 30, 1.3)

	_, err := engine.ComputeSpread(table, "X", "Y", 31)
	require.ErrorIs(t, err, domain.ErrInsufficientData)

	var ide *domain.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 31, ide.Need)
	assert.Equal(t, 30, ide.Got)

	_, err = engine.ComputeSpread(table, "X", "Y", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestComputeSpread_UnknownPair(t *testing.T) {
	table := cointegratedTable(8, 30, 1.3)
	_, err := engine.ComputeSpread(table, "X", "NOPE", 10)
	assert.ErrorIs(t, err, domain.ErrUnknownPair)
}
