package engine_test

import (
	"testing"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/alejandrodnm/pairbot/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signalsOf(s domain.SignalSeries) (sig, pos []domain.Signal) {
	for _, p := range s.Points {
		sig = append(sig, p.Signal)
		pos = append(pos, p.Position)
	}
	return sig, pos
}

func TestGenerateSignals_EntryExitFlip(t *testing.T) {
	// sube a 2.5, cae a 0.3, baja a -2.5
	z := []float64{0, 1, 2.1, 2.5, 1.2, 0.3, -1, -2.5, -1.5}
	out := engine.GenerateSignals(spreadFromZ(z), 2.0, 0.5)

	sig, pos := signalsOf(out)
	assert.Equal(t, []domain.Signal{0, 0, -1, -1, 0, 0, 0, 1, 0}, sig)
	assert.Equal(t, []domain.Signal{0, 0, -1, -1, -1, -1, -1, 1, 1}, pos)
	assert.Equal(t, 2.0, out.EntryThreshold)
	assert.Equal(t, 0.5, out.ExitThreshold)
}

func TestGenerateSignals_InsideExitBandStaysFlat(t *testing.T) {
	z := []float64{0.1, -0.4, 0.49, -0.2, 0, 0.3}
	out := engine.GenerateSignals(spreadFromZ(z), 2.0, 0.5)

	for _, p := range out.Points {
		assert.Equal(t, domain.SignalFlat, p.Signal)
		assert.Equal(t, domain.SignalFlat, p.Position)
	}
}

func TestGenerateSignals_HoldsAfterEntry(t *testing.T) {
	z := []float64{0, -2.3, -1.9, -1.0, -0.8, -1.7, -0.6}
	out := engine.GenerateSignals(spreadFromZ(z), 2.0, 0.5)

	_, pos := signalsOf(out)
	assert.Equal(t, domain.SignalFlat, pos[0])
	for _, p := range pos[1:] {
		assert.Equal(t, domain.SignalLong, p)
	}
}

func TestGenerateSignals_UndefinedZScoreNeverTriggers(t *testing.T) {
	s := spreadFromZ([]float64{5, -5, 3})
	for i := range s.Points {
		s.Points[i].Valid = false
	}
	out := engine.GenerateSignals(s, 2.0, 0.5)

	for _, p := range out.Points {
		assert.Equal(t, domain.SignalFlat, p.Signal)
		assert.Equal(t, domain.SignalFlat, p.Position)
	}
}

func TestGenerateSignals_PiecewiseConstant(t *testing.T) {
	z := []float64{0, 2.5, 1, 0.2, -1, -3, -1, 0, 2.2, 0}
	out := engine.GenerateSignals(spreadFromZ(z), 2.0, 0.5)

	// La posición solo cambia en barras con señal distinta de cero.
	for i := 1; i < len(out.Points); i++ {
		if out.Points[i].Position != out.Points[i-1].Position {
			assert.NotEqual(t, domain.SignalFlat, out.Points[i].Signal, "index %d", i)
		}
	}

	tr := out.Transitions()
	require.Len(t, tr, 3)
	assert.Equal(t, domain.SignalShort, tr[0].Position)
	assert.Equal(t, domain.SignalLong, tr[1].Position)
	assert.Equal(t, domain.SignalShort, tr[2].Position)
}

func TestValidateThresholds(t *testing.T) {
	assert.NoError(t, engine.ValidateThresholds(2, 0.5))
	assert.ErrorIs(t, engine.ValidateThresholds(0.5, 0.5), domain.ErrInvalidThresholds)
	assert.ErrorIs(t, engine.ValidateThresholds(0.5, 2), domain.ErrInvalidThresholds)
	assert.ErrorIs(t, engine.ValidateThresholds(2, -1), domain.ErrInvalidThresholds)
}

func TestGenerateForPair(t *testing.T) {
	table := cointegratedTable(42, 300, 2)

	out, err := engine.GenerateForPair(table, "X", "Y", 60, 2, 0.5)
	require.NoError(t, err)
	require.Len(t, out.Points, 300)
	for _, p := range out.Points[:59] {
		assert.Equal(t, domain.SignalFlat, p.Signal)
	}

	// cada punto lleva el spread del que sale su z-score
	spread, err := engine.ComputeSpread(table, "X", "Y", 60)
	require.NoError(t, err)
	for i, p := range out.Points {
		assert.Equal(t, spread.Points[i].Spread, p.Spread, "index %d", i)
		assert.Equal(t, spread.Points[i].ZScore, p.ZScore, "index %d", i)
	}

	_, err = engine.GenerateForPair(table, "X", "Y", 301, 2, 0.5)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}
