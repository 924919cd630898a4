package engine_test

import (
	"math/rand"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func days(n int) []time.Time {
	ts := make([]time.Time, n)
	for i := range ts {
		ts[i] = day0.AddDate(0, 0, i)
	}
	return ts
}

func randomWalk(rng *rand.Rand, n int, start float64) []float64 {
	out := make([]float64, n)
	v := start
	for i := range out {
		v += rng.NormFloat64()
		out[i] = v
	}
	return out
}

// cointegratedTable builds x as a random walk and y = beta·x + stationary noise.
func cointegratedTable(seed int64, n int, beta float64) *domain.PriceTable {
	rng := rand.New(rand.NewSource(seed))
	x := randomWalk(rng, n, 100)
	y := make([]float64, n)
	for i := range x {
		y[i] = beta*x[i] + rng.NormFloat64()
	}
	return domain.NewPriceTable(days(n), map[string][]float64{"X": x, "Y": y})
}

func raw(symbol string, header []string, rows ...[]string) domain.RawSeries {
	return domain.RawSeries{Symbol: symbol, Table: domain.RawTable{Header: header, Rows: rows}}
}

func spreadFromZ(z []float64) domain.SpreadSeries {
	pts := make([]domain.SpreadPoint, len(z))
	for i, v := range z {
		pts[i] = domain.SpreadPoint{Timestamp: day0.AddDate(0, 0, i), ZScore: v, Valid: true}
	}
	return domain.SpreadSeries{X: "X", Y: "Y", Lookback: 2, Points: pts}
}
