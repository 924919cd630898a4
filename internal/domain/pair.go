package domain

import (
	"fmt"
	"time"
)

// CointegratedPair es un par que pasó el test ADF sobre los residuos de Y ~ X.
// La dirección importa: el hedge ratio depende de qué serie es la dependiente.
type CointegratedPair struct {
	X            string  // independiente
	Y            string  // dependiente
	PValue       float64 // p-value MacKinnon del test ADF
	ADFStat      float64
	UsedLag      int
	HedgeRatio   float64 // β de y = α + β·x
	Intercept    float64 // α
	Observations int     // filas alineadas usadas en la regresión
}

// Key devuelve el identificador "X/Y" del par.
func (p CointegratedPair) Key() string {
	return PairKey(p.X, p.Y)
}

// PairKey formatea un par como "X/Y".
func PairKey(x, y string) string {
	return fmt.Sprintf("%s/%s", x, y)
}

// ScanResult es el resultado explícito de un escaneo. Sustituye al estado
// implícito de "últimos pares encontrados": quien lo necesite, lo guarda.
type ScanResult struct {
	ID              string
	StartedAt       time.Time
	Duration        time.Duration
	Universe        []string
	PValueThreshold float64
	MinWindow       int
	Tested          int // pares con suficiente historia
	Skipped         int // pares descartados por historia corta
	Failed          int // pares con regresión o ADF degenerado
	Pairs           []CointegratedPair
}

// Candidates devuelve el número de pares enumerados.
func (r ScanResult) Candidates() int {
	return r.Tested + r.Skipped
}

// PairStat agrega las apariciones de un par a lo largo de los escaneos guardados.
type PairStat struct {
	X          string
	Y          string
	FirstSeen  time.Time
	LastSeen   time.Time
	TimesFound int
	BestPValue float64
	LastPValue float64
	LastHedge  float64
}
