package domain

import "time"

// Signal es el evento discreto de una barra.
type Signal int8

const (
	SignalShort Signal = -1 // spread caro: short Y, long X
	SignalFlat  Signal = 0
	SignalLong  Signal = 1 // spread barato: long Y, short X
)

// String devuelve la etiqueta legible de la señal.
func (s Signal) String() string {
	switch s {
	case SignalShort:
		return "SHORT"
	case SignalLong:
		return "LONG"
	default:
		return "FLAT"
	}
}

// SpreadPoint es el spread y su z-score en un instante.
// Valid=false cuando el z-score no está definido (ventana incompleta o
// desviación típica nula); en ese caso ZScore vale 0 y no debe usarse.
type SpreadPoint struct {
	Timestamp time.Time
	Spread    float64
	ZScore    float64
	Valid     bool
}

// SpreadSeries es el spread de un par alineado 1:1 con su dominio temporal común.
type SpreadSeries struct {
	X          string
	Y          string
	HedgeRatio float64
	Intercept  float64 // informativo: el spread no lo resta
	Lookback   int
	Points     []SpreadPoint
}

// SignalPoint combina la señal de la barra con la posición resultante.
type SignalPoint struct {
	Timestamp time.Time
	Spread    float64
	ZScore    float64
	Valid     bool
	Signal    Signal
	Position  Signal
}

// SignalSeries es la salida terminal del engine para un par.
type SignalSeries struct {
	X              string
	Y              string
	HedgeRatio     float64
	EntryThreshold float64
	ExitThreshold  float64
	Points         []SignalPoint
}

// Transitions devuelve los puntos donde la posición cambia respecto a la barra anterior.
func (s SignalSeries) Transitions() []SignalPoint {
	var out []SignalPoint
	prev := SignalFlat
	for _, p := range s.Points {
		if p.Position != prev {
			out = append(out, p)
			prev = p.Position
		}
	}
	return out
}

// Last devuelve el último punto de la serie, si existe.
func (s SignalSeries) Last() (SignalPoint, bool) {
	if len(s.Points) == 0 {
		return SignalPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}
