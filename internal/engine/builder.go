package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// Build aligns per-instrument raw tables into one dense PriceTable.
//
// Steps: normalize each source's schema and parse (timestamp, close) rows,
// outer-join on the union of timestamps, sort ascending, forward-fill, and
// drop every column that still has gaps. Instruments that fail to parse are
// logged and excluded; the build only fails when nothing usable remains.
func Build(sources []domain.RawSeries) (*domain.PriceTable, error) {
	parsed := make(map[string]map[time.Time]float64, len(sources))
	for _, src := range sources {
		if _, dup := parsed[src.Symbol]; dup {
			slog.Warn("skipping instrument", "symbol", src.Symbol, "err", "duplicate source")
			continue
		}
		points, err := ParseSeries(src)
		if err != nil {
			slog.Warn("skipping instrument", "symbol", src.Symbol, "err", err)
			continue
		}
		byTime := make(map[time.Time]float64, len(points))
		for _, p := range points {
			byTime[p.Timestamp] = p.Close // keeps the last row of a duplicated timestamp
		}
		parsed[src.Symbol] = byTime
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("engine.Build: no source could be parsed: %w", domain.ErrEmptyUniverse)
	}

	index := unionIndex(parsed)

	columns := make(map[string][]float64, len(parsed))
	for sym, byTime := range parsed {
		col := make([]float64, len(index))
		last := math.NaN()
		for i, ts := range index {
			if v, ok := byTime[ts]; ok && !math.IsNaN(v) {
				last = v
			}
			col[i] = last
		}
		if hasGaps(col) {
			slog.Warn("dropping instrument with gaps after forward-fill", "symbol", sym)
			continue
		}
		columns[sym] = col
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("engine.Build: every instrument has gaps: %w", domain.ErrEmptyUniverse)
	}

	table := domain.NewPriceTable(index, columns)
	slog.Debug("price table built",
		"instruments", len(columns),
		"dropped", len(parsed)-len(columns),
		"rows", table.Len(),
	)
	return table, nil
}

// ParseSeries extracts (timestamp, close) points from one raw table. Rows
// whose timestamp does not parse (secondary header rows, blank lines) are
// skipped; unparseable or infinite closes become NaN and are left to the
// forward-fill.
func ParseSeries(src domain.RawSeries) ([]domain.PricePoint, error) {
	schema, err := NormalizeSchema(src.Symbol, src.Table.Header)
	if err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(src.Table.Rows))
	skipped := 0
	for _, row := range src.Table.Rows {
		if schema.Timestamp >= len(row) {
			skipped++
			continue
		}
		ts, ok := ParseTimestamp(row[schema.Timestamp])
		if !ok {
			skipped++
			continue
		}
		closeVal := math.NaN()
		if schema.Close < len(row) {
			closeVal = parseClose(row[schema.Close])
		}
		points = append(points, domain.PricePoint{Timestamp: ts, Close: closeVal})
	}
	if skipped > 0 {
		slog.Debug("skipped unparseable rows", "symbol", src.Symbol, "rows", skipped)
	}
	if len(points) == 0 {
		return nil, &domain.DataFormatError{Symbol: src.Symbol, Reason: "no rows with a parseable timestamp"}
	}
	return points, nil
}

func unionIndex(parsed map[string]map[time.Time]float64) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, byTime := range parsed {
		for ts := range byTime {
			seen[ts] = struct{}{}
		}
	}
	index := make([]time.Time, 0, len(seen))
	for ts := range seen {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	return index
}

func hasGaps(col []float64) bool {
	for _, v := range col {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
