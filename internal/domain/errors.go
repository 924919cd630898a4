package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataFormat: tabla de origen malformada (faltan columnas obligatorias).
	ErrDataFormat = errors.New("data format error")
	// ErrEmptyUniverse: ningún instrumento sobrevive a la alineación.
	ErrEmptyUniverse = errors.New("empty universe")
	// ErrInsufficientData: historia alineada más corta que la ventana requerida.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUnknownPair: alguno de los instrumentos no es columna de la tabla.
	ErrUnknownPair = errors.New("unknown pair")
	// ErrInvalidThresholds: exit >= entry, la banda de salida nunca se alcanzaría.
	ErrInvalidThresholds = errors.New("invalid thresholds")
)

// DataFormatError describe por qué una fuente no es utilizable.
type DataFormatError struct {
	Symbol string
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrDataFormat, e.Symbol, e.Reason)
}

func (e *DataFormatError) Unwrap() error { return ErrDataFormat }

// InsufficientDataError indica cuántas observaciones hacían falta y cuántas había.
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need %d observations, got %d", ErrInsufficientData, e.Need, e.Got)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }
