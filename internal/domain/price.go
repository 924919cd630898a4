package domain

import (
	"math"
	"sort"
	"time"
)

// RawTable es una tabla tal y como la entrega una fuente de precios:
// cabecera + filas de celdas en texto, sin interpretar.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// RawSeries asocia un instrumento con su tabla cruda.
type RawSeries struct {
	Symbol string
	Table  RawTable
}

// PricePoint es un cierre de un instrumento en un instante.
// Close es NaN cuando la celda venía vacía o no era numérica.
type PricePoint struct {
	Timestamp time.Time
	Close     float64
}

// PriceTable es la tabla densa de cierres alineados por timestamp.
// Invariantes: timestamps ascendentes y únicos; ninguna columna contiene NaN.
// Inmutable tras su construcción: todos los accesores devuelven copias.
type PriceTable struct {
	timestamps []time.Time
	symbols    []string
	columns    map[string][]float64
}

// NewPriceTable construye una tabla a partir de columnas ya alineadas.
// Es responsabilidad del llamador respetar las invariantes; el builder del
// engine es el único productor en el código de producción.
func NewPriceTable(timestamps []time.Time, columns map[string][]float64) *PriceTable {
	symbols := make([]string, 0, len(columns))
	cols := make(map[string][]float64, len(columns))
	for sym, vals := range columns {
		symbols = append(symbols, sym)
		cols[sym] = append([]float64(nil), vals...)
	}
	sort.Strings(symbols)
	return &PriceTable{
		timestamps: append([]time.Time(nil), timestamps...),
		symbols:    symbols,
		columns:    cols,
	}
}

// Len devuelve el número de filas (timestamps).
func (t *PriceTable) Len() int { return len(t.timestamps) }

// Symbols devuelve los instrumentos presentes, ordenados.
func (t *PriceTable) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// Has indica si el instrumento es una columna de la tabla.
func (t *PriceTable) Has(symbol string) bool {
	_, ok := t.columns[symbol]
	return ok
}

// Timestamps devuelve una copia del índice temporal.
func (t *PriceTable) Timestamps() []time.Time {
	return append([]time.Time(nil), t.timestamps...)
}

// Column devuelve una copia de los cierres del instrumento.
func (t *PriceTable) Column(symbol string) ([]float64, bool) {
	col, ok := t.columns[symbol]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), col...), true
}

// Aligned devuelve las filas donde ambos instrumentos tienen valor.
// En una tabla construida por el builder son todas, pero el filtro se mantiene
// para tablas construidas a mano.
func (t *PriceTable) Aligned(x, y string) (ts []time.Time, xs, ys []float64, ok bool) {
	cx, okX := t.columns[x]
	cy, okY := t.columns[y]
	if !okX || !okY {
		return nil, nil, nil, false
	}
	for i, stamp := range t.timestamps {
		if math.IsNaN(cx[i]) || math.IsNaN(cy[i]) {
			continue
		}
		ts = append(ts, stamp)
		xs = append(xs, cx[i])
		ys = append(ys, cy[i])
	}
	return ts, xs, ys, true
}
