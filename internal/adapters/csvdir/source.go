// Package csvdir lee y escribe el directorio de CSVs por instrumento
// (<dir>/<SYMBOL>.csv) que hace de frontera entre la descarga y el engine.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

const ext = ".csv"

// Source implementa ports.PriceSource sobre un directorio de CSVs.
type Source struct {
	dir     string
	symbols map[string]bool // vacío = todos los ficheros
}

// NewSource crea una fuente sobre dir. Si se pasan símbolos, solo carga esos.
func NewSource(dir string, symbols ...string) *Source {
	s := &Source{dir: dir, symbols: make(map[string]bool, len(symbols))}
	for _, sym := range symbols {
		s.symbols[sym] = true
	}
	return s
}

// LoadSeries lee todos los *.csv del directorio, ordenados por nombre.
// Un fichero ilegible se registra y se omite; solo falla si el directorio no existe.
func (s *Source) LoadSeries(ctx context.Context) ([]domain.RawSeries, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("csvdir.LoadSeries: read dir %q: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	series := make([]domain.RawSeries, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbol := strings.TrimSuffix(name, filepath.Ext(name))
		if len(s.symbols) > 0 && !s.symbols[symbol] {
			continue
		}

		table, err := readFile(filepath.Join(s.dir, name))
		if err != nil {
			slog.Warn("skipping instrument", "symbol", symbol, "err", err)
			continue
		}
		series = append(series, domain.RawSeries{Symbol: symbol, Table: table})
	}

	slog.Debug("price files loaded", "dir", s.dir, "files", len(series))
	return series, nil
}

// readFile lee un CSV con cabecera; filas de longitud variable se aceptan.
func readFile(path string) (domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, err
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable parsea un CSV cuya primera fila es la cabecera.
func ReadTable(r io.Reader) (domain.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return domain.RawTable{}, fmt.Errorf("empty file")
	}
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read rows: %w", err)
	}
	return domain.RawTable{Header: header, Rows: rows}, nil
}
