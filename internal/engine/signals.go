package engine

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// Default thresholds, in standard deviations.
const (
	DefaultEntryThreshold = 2.0
	DefaultExitThreshold  = 0.5
)

// ValidateThresholds checks the precondition GenerateSignals relies on.
func ValidateThresholds(entry, exit float64) error {
	if exit < 0 || entry <= 0 || exit >= entry {
		return fmt.Errorf("engine.ValidateThresholds: entry=%.4f exit=%.4f: %w", entry, exit, domain.ErrInvalidThresholds)
	}
	return nil
}

// GenerateSignals turns a z-score series into per-bar signals and positions.
//
// Precondition (not enforced): exit < entry. See ValidateThresholds.
//
// Signal per bar: undefined z → 0; z > entry → −1 (short the spread);
// z < −entry → +1 (long the spread); |z| < exit → 0; anything else → 0.
// Position is the latest non-zero signal at or before the bar, 0 before the
// first one. Exit bars and no-event bars both emit 0, so the position is
// carried through an exit until the opposite entry fires.
func GenerateSignals(series domain.SpreadSeries, entry, exit float64) domain.SignalSeries {
	out := domain.SignalSeries{
		X:              series.X,
		Y:              series.Y,
		HedgeRatio:     series.HedgeRatio,
		EntryThreshold: entry,
		ExitThreshold:  exit,
		Points:         make([]domain.SignalPoint, len(series.Points)),
	}

	position := domain.SignalFlat
	for i, p := range series.Points {
		sig := signalFor(p, entry, exit)
		if sig != domain.SignalFlat {
			position = sig
		}
		out.Points[i] = domain.SignalPoint{
			Timestamp: p.Timestamp,
			Spread:    p.Spread,
			ZScore:    p.ZScore,
			Valid:     p.Valid,
			Signal:    sig,
			Position:  position,
		}
	}
	return out
}

func signalFor(p domain.SpreadPoint, entry, exit float64) domain.Signal {
	if !p.Valid || math.IsNaN(p.ZScore) {
		return domain.SignalFlat
	}
	sig := domain.SignalFlat
	switch {
	case p.ZScore > entry:
		sig = domain.SignalShort
	case p.ZScore < -entry:
		sig = domain.SignalLong
	}
	if math.Abs(p.ZScore) < exit {
		sig = domain.SignalFlat
	}
	return sig
}

// GenerateForPair computes the spread for (x, y) and derives its signals.
func GenerateForPair(table *domain.PriceTable, x, y string, lookback int, entry, exit float64) (domain.SignalSeries, error) {
	spread, err := ComputeSpread(table, x, y, lookback)
	if err != nil {
		return domain.SignalSeries{}, err
	}
	return GenerateSignals(spread, entry, exit), nil
}
