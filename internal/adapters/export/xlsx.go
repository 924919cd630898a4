// Package export vuelca escaneos y series de señales a hojas de cálculo.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/xuri/excelize/v2"
)

// PairsSheet es la hoja con el resumen del escaneo.
const PairsSheet = "pairs"

// maxSheetName es el límite de Excel para nombres de hoja.
const maxSheetName = 31

var (
	pairsHeader  = []interface{}{"X", "Y", "p-value", "ADF", "Lag", "Hedge", "Intercept", "Obs"}
	signalHeader = []interface{}{"timestamp", "spread", "zscore", "signal", "position"}
)

// XLSX implementa ports.SignalExporter con excelize.
type XLSX struct{}

// NewXLSX crea el exportador.
func NewXLSX() *XLSX { return &XLSX{} }

// ExportSignals escribe una hoja "pairs" con los pares del escaneo y una hoja
// por serie con timestamp, spread, z-score, señal y posición. El z-score queda vacío
// en las barras sin z válido.
func (x *XLSX) ExportSignals(path string, scan domain.ScanResult, series []domain.SignalSeries) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PairsSheet); err != nil {
		return fmt.Errorf("export.ExportSignals: rename sheet: %w", err)
	}
	if err := writePairs(f, scan); err != nil {
		return fmt.Errorf("export.ExportSignals: %w", err)
	}

	used := map[string]bool{PairsSheet: true}
	for _, s := range series {
		name := uniqueSheetName(SheetName(s.X, s.Y), used)
		used[name] = true
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export.ExportSignals: new sheet %q: %w", name, err)
		}
		if err := writeSeries(f, name, s); err != nil {
			return fmt.Errorf("export.ExportSignals: %s: %w", domain.PairKey(s.X, s.Y), err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export.ExportSignals: save %q: %w", path, err)
	}
	return nil
}

// SheetName devuelve el nombre de hoja de un par: "X-Y", sin los caracteres
// que Excel no admite.
func SheetName(x, y string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, x+"-"+y)
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

// --- helpers ---

func writePairs(f *excelize.File, scan domain.ScanResult) error {
	if err := f.SetSheetRow(PairsSheet, "A1", &pairsHeader); err != nil {
		return fmt.Errorf("pairs header: %w", err)
	}
	for i, p := range scan.Pairs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.X, p.Y, p.PValue, p.ADFStat, p.UsedLag, p.HedgeRatio, p.Intercept, p.Observations}
		if err := f.SetSheetRow(PairsSheet, cell, &row); err != nil {
			return fmt.Errorf("pairs row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeSeries(f *excelize.File, sheet string, s domain.SignalSeries) error {
	if err := f.SetSheetRow(sheet, "A1", &signalHeader); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	for i, p := range s.Points {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var z interface{} = ""
		if p.Valid {
			z = p.ZScore
		}
		row := []interface{}{p.Timestamp.UTC().Format(time.RFC3339), p.Spread, z, int(p.Signal), int(p.Position)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

func uniqueSheetName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("~%d", n)
		base := []rune(name)
		if len(base)+len(suffix) > maxSheetName {
			base = base[:maxSheetName-len(suffix)]
		}
		candidate := string(base) + suffix
		if !used[candidate] {
			return candidate
		}
	}
}
