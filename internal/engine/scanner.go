package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/alejandrodnm/pairbot/internal/stats"
	"github.com/google/uuid"
)

// ScanOptions controls the cointegration scan.
type ScanOptions struct {
	PValueThreshold float64 // accept iff ADF p-value < threshold
	MinWindow       int     // pairs with fewer than 2×MinWindow aligned rows are skipped
}

// DefaultScanOptions returns the reference defaults (5% level, 60-bar window).
func DefaultScanOptions() ScanOptions {
	return ScanOptions{PValueThreshold: 0.05, MinWindow: 60}
}

// candidate is one unordered pair in enumeration order.
type candidate struct {
	x, y string
}

type pairOutcome int

const (
	outcomeRejected pairOutcome = iota
	outcomeAccepted
	outcomeSkipped
	outcomeFailed
)

type pairResult struct {
	pair    domain.CointegratedPair
	outcome pairOutcome
}

// Scan tests every unordered pair of the universe for cointegration.
// An empty universe means every column of the table. Pairs are returned in
// combinations order (i<j over the universe as given), not by significance.
func Scan(table *domain.PriceTable, universe []string, opts ScanOptions) (domain.ScanResult, error) {
	res, cands, err := prepareScan(table, universe, opts)
	if err != nil {
		return domain.ScanResult{}, err
	}
	results := make([]pairResult, len(cands))
	for i, c := range cands {
		results[i] = evaluatePair(table, c, opts)
	}
	return finishScan(res, results), nil
}

func prepareScan(table *domain.PriceTable, universe []string, opts ScanOptions) (domain.ScanResult, []candidate, error) {
	if table == nil || table.Len() == 0 {
		return domain.ScanResult{}, nil, fmt.Errorf("engine.Scan: %w", domain.ErrEmptyUniverse)
	}
	if opts.PValueThreshold <= 0 || opts.MinWindow < 1 {
		return domain.ScanResult{}, nil, fmt.Errorf("engine.Scan: invalid options %+v", opts)
	}

	symbols := resolveUniverse(table, universe)
	res := domain.ScanResult{
		ID:              uuid.New().String(),
		StartedAt:       time.Now().UTC(),
		Universe:        symbols,
		PValueThreshold: opts.PValueThreshold,
		MinWindow:       opts.MinWindow,
	}

	cands := make([]candidate, 0, len(symbols)*(len(symbols)-1)/2)
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			cands = append(cands, candidate{x: symbols[i], y: symbols[j]})
		}
	}
	return res, cands, nil
}

func finishScan(res domain.ScanResult, results []pairResult) domain.ScanResult {
	for _, r := range results {
		switch r.outcome {
		case outcomeSkipped:
			res.Skipped++
			continue
		case outcomeFailed:
			res.Failed++
		case outcomeAccepted:
			res.Pairs = append(res.Pairs, r.pair)
		}
		res.Tested++
	}
	res.Duration = time.Since(res.StartedAt)
	return res
}

// resolveUniverse drops unknown and duplicated symbols, keeping input order.
func resolveUniverse(table *domain.PriceTable, universe []string) []string {
	if len(universe) == 0 {
		return table.Symbols()
	}
	seen := make(map[string]bool, len(universe))
	out := make([]string, 0, len(universe))
	for _, sym := range universe {
		if seen[sym] {
			continue
		}
		seen[sym] = true
		if !table.Has(sym) {
			slog.Warn("symbol not in price table, ignored", "symbol", sym)
			continue
		}
		out = append(out, sym)
	}
	return out
}

// evaluatePair is stateless: it only reads the table, so it is safe to call
// from several goroutines at once.
func evaluatePair(table *domain.PriceTable, c candidate, opts ScanOptions) pairResult {
	_, xs, ys, _ := table.Aligned(c.x, c.y)
	if len(xs) < 2*opts.MinWindow {
		slog.Debug("pair skipped: short history",
			"pair", domain.PairKey(c.x, c.y),
			"rows", len(xs),
			"need", 2*opts.MinWindow,
		)
		return pairResult{outcome: outcomeSkipped}
	}

	fit, err := stats.LinearFit(xs, ys)
	if err != nil {
		slog.Debug("pair regression failed", "pair", domain.PairKey(c.x, c.y), "err", err)
		return pairResult{outcome: outcomeFailed}
	}
	adf, err := stats.ADF(fit.Residuals)
	if err != nil {
		slog.Debug("pair unit-root test failed", "pair", domain.PairKey(c.x, c.y), "err", err)
		return pairResult{outcome: outcomeFailed}
	}

	pair := domain.CointegratedPair{
		X:            c.x,
		Y:            c.y,
		PValue:       adf.PValue,
		ADFStat:      adf.Stat,
		UsedLag:      adf.UsedLag,
		HedgeRatio:   fit.Slope,
		Intercept:    fit.Intercept,
		Observations: len(xs),
	}
	if adf.PValue < opts.PValueThreshold {
		return pairResult{pair: pair, outcome: outcomeAccepted}
	}
	return pairResult{pair: pair, outcome: outcomeRejected}
}
