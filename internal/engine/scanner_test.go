package engine_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/alejandrodnm/pairbot/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeLegTable(seed int64, n int) *domain.PriceTable {
	rng := rand.New(rand.NewSource(seed))
	x := randomWalk(rng, n, 100)
	y := make([]float64, n)
	z := make([]float64, n)
	for i := range x {
		y[i] = 2*x[i] + rng.NormFloat64()
		z[i] = 3*x[i] + 5 + rng.NormFloat64()
	}
	return domain.NewPriceTable(days(n), map[string][]float64{"X": x, "Y": y, "Z": z})
}

func TestScan_FindsSyntheticPair(t *testing.T) {
	table := cointegratedTable(42, 300, 2)

	opts := engine.DefaultScanOptions()
	opts.PValueThreshold = 0.1
	res, err := engine.Scan(table, []string{"X", "Y"}, opts)
	require.NoError(t, err)

	require.Len(t, res.Pairs, 1)
	p := res.Pairs[0]
	assert.Equal(t, "X", p.X)
	assert.Equal(t, "Y", p.Y)
	assert.Less(t, p.PValue, 0.1)
	assert.InDelta(t, 2.0, p.HedgeRatio, 0.05)
	assert.Equal(t, 300, p.Observations)
	assert.Equal(t, 1, res.Tested)
	assert.Equal(t, 0, res.Skipped)
	assert.NotEmpty(t, res.ID)
}

func TestScan_SkipsShortHistory(t *testing.T) {
	table := cointegratedTable(42, 100, 2)

	opts := engine.ScanOptions{PValueThreshold: 0.5, MinWindow: 60}
	res, err := engine.Scan(table, nil, opts)
	require.NoError(t, err)

	assert.Empty(t, res.Pairs)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Tested)
	assert.Equal(t, 1, res.Candidates())
}

func TestScan_NeverReturnsPairsBelowMinHistory(t *testing.T) {
	table := cointegratedTable(3, 150, 1.2)
	for _, window := range []int{10, 60, 75, 76, 100} {
		res, err := engine.Scan(table, nil, engine.ScanOptions{PValueThreshold: 1, MinWindow: window})
		require.NoError(t, err)
		for _, p := range res.Pairs {
			assert.GreaterOrEqual(t, p.Observations, 2*window)
		}
		if 2*window > 150 {
			assert.Empty(t, res.Pairs, "window %d", window)
		}
	}
}

func TestScan_EnumerationOrder(t *testing.T) {
	table := threeLegTable(11, 300)

	res, err := engine.Scan(table, []string{"Z", "X", "Y"}, engine.ScanOptions{PValueThreshold: 0.1, MinWindow: 30})
	require.NoError(t, err)
	require.Len(t, res.Pairs, 3)

	got := make([]string, len(res.Pairs))
	for i, p := range res.Pairs {
		got[i] = p.Key()
	}
	assert.Equal(t, []string{"Z/X", "Z/Y", "X/Y"}, got)
}

func TestScan_DegenerateSeriesIsNotCointegrated(t *testing.T) {
	n := 200
	flat := make([]float64, n)
	for i := range flat {
		flat[i] = 50
	}
	rng := rand.New(rand.NewSource(5))
	table := domain.NewPriceTable(days(n), map[string][]float64{
		"FLAT": flat,
		"WALK": randomWalk(rng, n, 10),
	})

	res, err := engine.Scan(table, nil, engine.ScanOptions{PValueThreshold: 1, MinWindow: 20})
	require.NoError(t, err)
	assert.Empty(t, res.Pairs)
	assert.Equal(t, 1, res.Failed)
}

func TestScan_IgnoresUnknownAndDuplicateSymbols(t *testing.T) {
	table := cointegratedTable(42, 300, 2)

	res, err := engine.Scan(table, []string{"X", "NOPE", "X", "Y"}, engine.ScanOptions{PValueThreshold: 0.1, MinWindow: 60})
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, res.Universe)
	assert.Len(t, res.Pairs, 1)
}

func TestScan_InvalidInput(t *testing.T) {
	_, err := engine.Scan(nil, nil, engine.DefaultScanOptions())
	assert.ErrorIs(t, err, domain.ErrEmptyUniverse)

	table := cointegratedTable(1, 10, 1)
	_, err = engine.Scan(table, nil, engine.ScanOptions{PValueThreshold: 0, MinWindow: 5})
	assert.Error(t, err)
}

func TestScanConcurrent_MatchesSequential(t *testing.T) {
	table := threeLegTable(21, 250)
	opts := engine.ScanOptions{PValueThreshold: 0.1, MinWindow: 30}

	seq, err := engine.Scan(table, nil, opts)
	require.NoError(t, err)
	par, err := engine.ScanConcurrent(context.Background(), table, nil, opts, 4)
	require.NoError(t, err)

	assert.Equal(t, seq.Pairs, par.Pairs)
	assert.Equal(t, seq.Tested, par.Tested)
	assert.Equal(t, seq.Skipped, par.Skipped)
}

func TestScanConcurrent_Cancelled(t *testing.T) {
	table := threeLegTable(21, 250)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ScanConcurrent(ctx, table, nil, engine.DefaultScanOptions(), 2)
	assert.ErrorIs(t, err, context.Canceled)
}
