package engine

import (
	"context"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// Session is the opt-in stateful wrapper: it keeps the price table it was
// built with and the most recent scan. Not safe for concurrent use; run one
// Session per goroutine instead.
type Session struct {
	prices   *domain.PriceTable
	lastScan *domain.ScanResult
}

// NewSession builds the price table once from the given sources.
func NewSession(sources []domain.RawSeries) (*Session, error) {
	table, err := Build(sources)
	if err != nil {
		return nil, err
	}
	return &Session{prices: table}, nil
}

// NewSessionFromTable wraps an already built table.
func NewSessionFromTable(table *domain.PriceTable) *Session {
	return &Session{prices: table}
}

// Prices returns the session's price table.
func (s *Session) Prices() *domain.PriceTable { return s.prices }

// Scan runs a scan and remembers its result.
func (s *Session) Scan(ctx context.Context, universe []string, opts ScanOptions, workers int) (domain.ScanResult, error) {
	var (
		res domain.ScanResult
		err error
	)
	if workers == 1 {
		res, err = Scan(s.prices, universe, opts)
	} else {
		res, err = ScanConcurrent(ctx, s.prices, universe, opts, workers)
	}
	if err != nil {
		return domain.ScanResult{}, err
	}
	s.lastScan = &res
	return res, nil
}

// LastScan returns the most recent scan, if any.
func (s *Session) LastScan() (domain.ScanResult, bool) {
	if s.lastScan == nil {
		return domain.ScanResult{}, false
	}
	return *s.lastScan, true
}

// CointegratedPairs returns the pairs of the most recent scan.
func (s *Session) CointegratedPairs() []domain.CointegratedPair {
	if s.lastScan == nil {
		return nil
	}
	return append([]domain.CointegratedPair(nil), s.lastScan.Pairs...)
}

// Spread computes the spread series of a pair on the session's table.
func (s *Session) Spread(x, y string, lookback int) (domain.SpreadSeries, error) {
	return ComputeSpread(s.prices, x, y, lookback)
}

// Signals computes the signal series of a pair on the session's table.
func (s *Session) Signals(x, y string, lookback int, entry, exit float64) (domain.SignalSeries, error) {
	return GenerateForPair(s.prices, x, y, lookback, entry, exit)
}
