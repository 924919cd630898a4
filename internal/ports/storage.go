package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// ScanStorage persiste el resultado de cada escaneo.
type ScanStorage interface {
	// SaveScan persiste el resumen del escaneo y los pares aceptados.
	SaveScan(ctx context.Context, result domain.ScanResult) error

	// GetHistory devuelve los escaneos iniciados en el rango dado, con sus pares.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.ScanResult, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
