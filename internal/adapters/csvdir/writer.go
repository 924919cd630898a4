package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// Header escrito por Writer; "timestamp" y "Close" son las columnas que lee el engine.
var Header = []string{"timestamp", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// Writer implementa ports.HistorySink: un CSV por instrumento.
type Writer struct {
	dir string
}

// NewWriter crea un Writer sobre dir (se crea si no existe al escribir).
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Path devuelve la ruta del CSV de un instrumento.
func (w *Writer) Path(symbol string) string {
	return filepath.Join(w.dir, symbol+ext)
}

// WriteHistory escribe las velas en <dir>/<symbol>.csv de forma atómica
// (fichero temporal + rename) para no dejar CSVs a medias.
func (w *Writer) WriteHistory(ctx context.Context, symbol string, bars []domain.Bar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("csvdir.WriteHistory: mkdir %q: %w", w.dir, err)
	}

	tmp, err := os.CreateTemp(w.dir, symbol+".*.tmp")
	if err != nil {
		return fmt.Errorf("csvdir.WriteHistory: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(Header); err != nil {
		tmp.Close()
		return fmt.Errorf("csvdir.WriteHistory: %s: write header: %w", symbol, err)
	}
	for _, b := range bars {
		rec := []string{
			formatTimestamp(b.Timestamp),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.AdjClose),
			formatFloat(b.Volume),
		}
		if err := cw.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("csvdir.WriteHistory: %s: write row: %w", symbol, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("csvdir.WriteHistory: %s: flush: %w", symbol, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csvdir.WriteHistory: %s: close: %w", symbol, err)
	}
	if err := os.Rename(tmp.Name(), w.Path(symbol)); err != nil {
		return fmt.Errorf("csvdir.WriteHistory: %s: rename: %w", symbol, err)
	}
	return nil
}

// formatTimestamp usa fecha sola para barras diarias (medianoche UTC).
func formatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Equal(t.Truncate(24 * time.Hour)) {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
