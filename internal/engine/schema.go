package engine

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// Column names accepted at the ingestion boundary. Anything else is a
// DataFormatError; nothing is guessed.
var (
	timestampColumns = []string{"timestamp", "Date", "Datetime"}
	closeColumn      = "Close"
)

// timestampLayouts are tried in order for every timestamp cell.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Schema is the position of the two columns the engine reads.
type Schema struct {
	Timestamp int
	Close     int
}

// NormalizeSchema locates the timestamp and close columns in a header.
// Header cells are trimmed; the timestamp column may be named timestamp,
// Date or Datetime (the first one found in that order wins).
func NormalizeSchema(symbol string, header []string) (Schema, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	s := Schema{Timestamp: -1, Close: -1}
	for _, name := range timestampColumns {
		if i, ok := idx[name]; ok {
			s.Timestamp = i
			break
		}
	}
	if s.Timestamp < 0 {
		return Schema{}, &domain.DataFormatError{Symbol: symbol, Reason: "missing 'timestamp' column"}
	}
	i, ok := idx[closeColumn]
	if !ok {
		return Schema{}, &domain.DataFormatError{Symbol: symbol, Reason: "missing 'Close' column"}
	}
	s.Close = i
	return s, nil
}

// ParseTimestamp parses a timestamp cell into UTC.
func ParseTimestamp(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseClose returns NaN for empty, non-numeric or infinite cells.
func parseClose(cell string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
