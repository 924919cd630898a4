package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// HistoryProvider descarga velas históricas de un proveedor externo.
type HistoryProvider interface {
	// FetchHistory devuelve las velas de [start, end) con la granularidad dada.
	// Un instrumento sin datos devuelve un slice vacío, no un error.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval domain.Interval) ([]domain.Bar, error)
}

// HistorySink persiste las velas descargadas, un artefacto por instrumento.
type HistorySink interface {
	WriteHistory(ctx context.Context, symbol string, bars []domain.Bar) error
}
