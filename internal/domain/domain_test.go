package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPriceTable_SymbolsSortedAndCopied(t *testing.T) {
	ts := []time.Time{t0, t0.AddDate(0, 0, 1)}
	cols := map[string][]float64{"PEP": {1, 2}, "KO": {3, 4}}
	table := NewPriceTable(ts, cols)

	assert.Equal(t, []string{"KO", "PEP"}, table.Symbols())
	assert.Equal(t, 2, table.Len())
	assert.True(t, table.Has("KO"))
	assert.False(t, table.Has("XOM"))

	// Mutar la entrada o lo devuelto no altera la tabla
	cols["KO"][0] = 99
	col, ok := table.Column("KO")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, col)
	col[1] = -1
	col, _ = table.Column("KO")
	assert.Equal(t, 4.0, col[1])

	_, ok = table.Column("XOM")
	assert.False(t, ok)
}

func TestPriceTable_AlignedSkipsNaN(t *testing.T) {
	ts := []time.Time{t0, t0.AddDate(0, 0, 1), t0.AddDate(0, 0, 2)}
	table := NewPriceTable(ts, map[string][]float64{
		"X": {1, math.NaN(), 3},
		"Y": {4, 5, 6},
	})

	gotTS, xs, ys, ok := table.Aligned("X", "Y")
	require.True(t, ok)
	assert.Equal(t, []time.Time{ts[0], ts[2]}, gotTS)
	assert.Equal(t, []float64{1, 3}, xs)
	assert.Equal(t, []float64{4, 6}, ys)

	_, _, _, ok = table.Aligned("X", "Z")
	assert.False(t, ok)
}

func TestSignalSeries_Transitions(t *testing.T) {
	s := SignalSeries{Points: []SignalPoint{
		{Position: SignalFlat},
		{Position: SignalShort},
		{Position: SignalShort},
		{Position: SignalLong},
		{Position: SignalLong},
	}}
	tr := s.Transitions()
	require.Len(t, tr, 2)
	assert.Equal(t, SignalShort, tr[0].Position)
	assert.Equal(t, SignalLong, tr[1].Position)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, SignalLong, last.Position)

	_, ok = SignalSeries{}.Last()
	assert.False(t, ok)
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "SHORT", SignalShort.String())
	assert.Equal(t, "FLAT", SignalFlat.String())
	assert.Equal(t, "LONG", SignalLong.String())
}

func TestParseInterval(t *testing.T) {
	for _, iv := range Intervals {
		got, err := ParseInterval(string(iv))
		require.NoError(t, err)
		assert.Equal(t, iv, got)
	}
	_, err := ParseInterval("2h")
	assert.Error(t, err)

	assert.Equal(t, 15*time.Minute, Interval15m.Duration())
	assert.Equal(t, 24*time.Hour, Interval1d.Duration())
	assert.True(t, Interval1h.Intraday())
	assert.False(t, Interval1d.Intraday())
}

func TestErrors_Unwrap(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &DataFormatError{Symbol: "AAA", Reason: "missing Close column"})
	assert.True(t, errors.Is(err, ErrDataFormat))
	var dfe *DataFormatError
	require.True(t, errors.As(err, &dfe))
	assert.Equal(t, "AAA", dfe.Symbol)

	err = fmt.Errorf("wrap: %w", &InsufficientDataError{Need: 120, Got: 80})
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Contains(t, err.Error(), "need 120")
}

func TestScanResult_Candidates(t *testing.T) {
	r := ScanResult{Tested: 4, Skipped: 2}
	assert.Equal(t, 6, r.Candidates())
	assert.Equal(t, "KO/PEP", CointegratedPair{X: "KO", Y: "PEP"}.Key())
}
