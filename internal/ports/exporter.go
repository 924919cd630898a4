package ports

import "github.com/alejandrodnm/pairbot/internal/domain"

// SignalExporter vuelca series de señales a un fichero para análisis externo.
type SignalExporter interface {
	ExportSignals(path string, scan domain.ScanResult, series []domain.SignalSeries) error
}
