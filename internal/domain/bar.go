package domain

import (
	"fmt"
	"time"
)

// Interval es la granularidad de descarga soportada.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
)

// Intervals lista las granularidades válidas.
var Intervals = []Interval{Interval1m, Interval5m, Interval15m, Interval1h, Interval1d}

// ParseInterval valida una granularidad.
func ParseInterval(s string) (Interval, error) {
	for _, iv := range Intervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", fmt.Errorf("domain.ParseInterval: unsupported interval %q (want one of %v)", s, Intervals)
}

// Duration devuelve la duración de una barra.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// Intraday indica si las barras llevan hora además de fecha.
func (i Interval) Intraday() bool {
	return i != Interval1d
}

// Bar es una vela OHLCV descargada de un proveedor.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	AdjClose  float64
	Volume    float64
}
