package ports

import (
	"context"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// Notifier presenta los resultados al usuario.
// En la implementación de consola, imprime tablas formateadas.
type Notifier interface {
	NotifyScan(ctx context.Context, result domain.ScanResult) error
	NotifySignals(ctx context.Context, series domain.SignalSeries) error
}
