package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerate is returned when the test statistic is not finite, e.g. for a
// series that is exactly constant.
var ErrDegenerate = errors.New("stats: degenerate unit-root regression")

// ADFResult is the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Stat    float64 // t-value of the lagged level coefficient
	PValue  float64 // MacKinnon approximate p-value
	UsedLag int     // lagged differences kept by the AIC search
	NObs    int     // observations in the final regression
	MaxLag  int
}

// ADF runs the augmented Dickey-Fuller test with a constant and no trend:
//
//	Δx_t = c + γ·x_{t-1} + Σ_{j=1..p} φ_j·Δx_{t-j} + e_t
//
// The lag order p is chosen by minimum AIC over 0..maxlag, with
// maxlag = ceil(12·(n/100)^¼) capped at n/2-2. Every candidate lag is fitted
// on the same sample (trimmed by maxlag); the chosen lag is then refitted on
// the longest sample it allows. The p-value is MacKinnon's (1994) surface for
// one series with a constant.
func ADF(x []float64) (ADFResult, error) {
	n := len(x)
	maxLag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if capLag := n/2 - 2; capLag < maxLag {
		maxLag = capLag
	}
	if maxLag < 0 {
		return ADFResult{}, fmt.Errorf("stats.ADF: %d observations: %w", n, ErrTooShort)
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = x[i] - x[i-1]
	}

	bestLag, bestAIC := -1, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		y, design := adfDesign(x, diff, maxLag, lag)
		res, err := OLS(y, design)
		if err != nil {
			continue
		}
		if aic := res.AIC(); aic < bestAIC || bestLag < 0 {
			bestLag, bestAIC = lag, aic
		}
	}
	if bestLag < 0 {
		return ADFResult{}, fmt.Errorf("stats.ADF: no lag order could be fitted: %w", ErrSingular)
	}

	y, design := adfDesign(x, diff, bestLag, bestLag)
	res, err := OLS(y, design)
	if err != nil {
		return ADFResult{}, fmt.Errorf("stats.ADF: lag %d: %w", bestLag, err)
	}
	stat := res.TValue(1)
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return ADFResult{}, ErrDegenerate
	}
	return ADFResult{
		Stat:    stat,
		PValue:  MacKinnonP(stat),
		UsedLag: bestLag,
		NObs:    res.NObs,
		MaxLag:  maxLag,
	}, nil
}

// adfDesign builds the regression sample trimmed by trim lags, keeping the
// first lags differences as regressors. Columns: const, x_{t-1}, Δx_{t-1..t-lags}.
func adfDesign(x, diff []float64, trim, lags int) ([]float64, *mat.Dense) {
	rows := len(diff) - trim
	y := make([]float64, rows)
	design := mat.NewDense(rows, 2+lags, nil)
	for r := 0; r < rows; r++ {
		t := r + trim
		y[r] = diff[t]
		design.Set(r, 0, 1)
		design.Set(r, 1, x[t])
		for j := 1; j <= lags; j++ {
			design.Set(r, 1+j, diff[t-j])
		}
	}
	return y, design
}

// MacKinnon (1994) response surface for the constant-only case, one series.
const (
	tauMax  = 2.74
	tauMin  = -18.83
	tauStar = -1.61
)

var (
	tauSmallP = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	stdNormal = distuv.UnitNormal
)

// MacKinnonP returns the approximate p-value of an ADF statistic.
func MacKinnonP(stat float64) float64 {
	switch {
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}
	coef := tauLargeP
	if stat <= tauStar {
		coef = tauSmallP
	}
	return stdNormal.CDF(polyval(coef, stat))
}

// polyval evaluates c[0] + c[1]·x + c[2]·x² + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}
