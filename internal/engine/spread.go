package engine

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/alejandrodnm/pairbot/internal/stats"
)

// flatStdTol is the standard deviation, relative to the price scale, below
// which a window is considered constant and its z-score undefined.
const flatStdTol = 1e-9

// ComputeSpread re-estimates the hedge ratio for y ~ x on the aligned
// history and returns spread = y − β·x with its rolling z-score.
//
// The intercept is fitted but not subtracted from the spread. The constant
// offset it leaves is removed by the rolling mean, so z-scores are unaffected.
//
// Z-scores are undefined (Valid=false) for the first lookback−1 points and
// for any window whose standard deviation is zero at price scale.
func ComputeSpread(table *domain.PriceTable, x, y string, lookback int) (domain.SpreadSeries, error) {
	if table == nil {
		return domain.SpreadSeries{}, fmt.Errorf("engine.ComputeSpread: %w", domain.ErrEmptyUniverse)
	}
	ts, xs, ys, ok := table.Aligned(x, y)
	if !ok {
		return domain.SpreadSeries{}, fmt.Errorf("engine.ComputeSpread: %s: %w", domain.PairKey(x, y), domain.ErrUnknownPair)
	}
	if lookback < 2 {
		return domain.SpreadSeries{}, fmt.Errorf("engine.ComputeSpread: lookback %d: %w",
			lookback, &domain.InsufficientDataError{Need: 2, Got: lookback})
	}
	if len(xs) == 0 || len(xs) < lookback {
		return domain.SpreadSeries{}, fmt.Errorf("engine.ComputeSpread: %s: %w",
			domain.PairKey(x, y), &domain.InsufficientDataError{Need: lookback, Got: len(xs)})
	}

	fit, err := stats.LinearFit(xs, ys)
	if err != nil {
		return domain.SpreadSeries{}, fmt.Errorf("engine.ComputeSpread: %s: %w", domain.PairKey(x, y), err)
	}

	spread := make([]float64, len(xs))
	scale := 0.0
	for i := range xs {
		spread[i] = ys[i] - fit.Slope*xs[i]
		scale = math.Max(scale, math.Abs(ys[i]))
	}
	minStd := flatStdTol * math.Max(1, scale)

	windows := stats.Rolling(spread, lookback)
	points := make([]domain.SpreadPoint, len(spread))
	for i, s := range spread {
		p := domain.SpreadPoint{Timestamp: ts[i], Spread: s}
		if w := windows[i]; w.OK && w.Std > minStd {
			p.ZScore = (s - w.Mean) / w.Std
			p.Valid = true
		}
		points[i] = p
	}

	return domain.SpreadSeries{
		X:          x,
		Y:          y,
		HedgeRatio: fit.Slope,
		Intercept:  fit.Intercept,
		Lookback:   lookback,
		Points:     points,
	}, nil
}
