package ports

import (
	"context"

	"github.com/alejandrodnm/pairbot/internal/domain"
)

// PriceSource entrega las tablas crudas por instrumento que alimentan al builder.
type PriceSource interface {
	// LoadSeries devuelve una tabla por instrumento. Los errores de un
	// instrumento concreto no deben abortar la carga: se registran y se omite.
	LoadSeries(ctx context.Context) ([]domain.RawSeries, error)
}
