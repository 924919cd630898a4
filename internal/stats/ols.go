// Package stats holds the numerical primitives shared by the scanner and the
// spread calculator: least squares, the augmented Dickey-Fuller unit-root test
// and trailing-window statistics.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingular is returned when the design matrix is rank deficient
	// (constant or collinear regressors).
	ErrSingular = errors.New("stats: singular design matrix")
	// ErrTooShort is returned when there are not more observations than parameters.
	ErrTooShort = errors.New("stats: sample too short")
)

// rankTol is the relative tolerance on |R_ii| below which a column is treated
// as linearly dependent on the previous ones.
const rankTol = 1e-10

// OLSResult is an ordinary least squares fit y = X·b + e.
type OLSResult struct {
	Coef      []float64
	StdErr    []float64
	Residuals []float64
	RSS       float64
	NObs      int
}

// TValue returns coef/stderr for column i.
func (r OLSResult) TValue(i int) float64 {
	return r.Coef[i] / r.StdErr[i]
}

// AIC returns the Gaussian Akaike criterion -2·llf + 2·k, with k counting
// every column of the design (constant included).
func (r OLSResult) AIC() float64 {
	n := float64(r.NObs)
	llf := -n / 2 * (math.Log(2*math.Pi) + math.Log(r.RSS/n) + 1)
	return -2*llf + 2*float64(len(r.Coef))
}

// OLS fits y on the columns of x with a QR decomposition. No intercept is
// added: callers include a column of ones when they want one.
func OLS(y []float64, x *mat.Dense) (OLSResult, error) {
	n, k := x.Dims()
	if n != len(y) {
		return OLSResult{}, fmt.Errorf("stats.OLS: %d rows in design, %d observations", n, len(y))
	}
	if n <= k {
		return OLSResult{}, fmt.Errorf("stats.OLS: %d observations for %d parameters: %w", n, k, ErrTooShort)
	}

	var qr mat.QR
	qr.Factorize(x)

	var r mat.Dense
	qr.RTo(&r)
	maxDiag := 0.0
	for i := 0; i < k; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}
	if maxDiag == 0 {
		return OLSResult{}, ErrSingular
	}
	for i := 0; i < k; i++ {
		if math.Abs(r.At(i, i)) < rankTol*maxDiag {
			return OLSResult{}, ErrSingular
		}
	}

	beta := mat.NewDense(k, 1, nil)
	if err := qr.SolveTo(beta, false, mat.NewDense(n, 1, append([]float64(nil), y...))); err != nil && !isCondition(err) {
		return OLSResult{}, fmt.Errorf("stats.OLS: solve: %w", ErrSingular)
	}

	res := OLSResult{
		Coef:      make([]float64, k),
		StdErr:    make([]float64, k),
		Residuals: make([]float64, n),
		NObs:      n,
	}
	for j := 0; j < k; j++ {
		res.Coef[j] = beta.At(j, 0)
	}
	for i := 0; i < n; i++ {
		fitted := 0.0
		for j := 0; j < k; j++ {
			fitted += x.At(i, j) * res.Coef[j]
		}
		e := y[i] - fitted
		res.Residuals[i] = e
		res.RSS += e * e
	}

	// cov(b) = s² (X'X)^-1 = s² R^-1 R^-T, without forming X'X.
	rt := mat.NewTriDense(k, mat.Upper, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			rt.SetTri(i, j, r.At(i, j))
		}
	}
	var rinv mat.TriDense
	if err := rinv.InverseTri(rt); err != nil && !isCondition(err) {
		return OLSResult{}, ErrSingular
	}
	s2 := res.RSS / float64(n-k)
	for j := 0; j < k; j++ {
		v := 0.0
		for c := j; c < k; c++ {
			v += rinv.At(j, c) * rinv.At(j, c)
		}
		res.StdErr[j] = math.Sqrt(s2 * v)
	}
	return res, nil
}

// isCondition reports whether err is only gonum's ill-conditioning warning.
// The result is still computed; rank deficiency is caught by rankTol.
func isCondition(err error) bool {
	var c mat.Condition
	return errors.As(err, &c)
}

// Fit is a simple regression y = Intercept + Slope·x.
type Fit struct {
	Intercept float64
	Slope     float64
	Residuals []float64
}

// LinearFit regresses y on x with an explicit intercept term.
func LinearFit(x, y []float64) (Fit, error) {
	if len(x) != len(y) {
		return Fit{}, fmt.Errorf("stats.LinearFit: len(x)=%d len(y)=%d", len(x), len(y))
	}
	design := mat.NewDense(len(x), 2, nil)
	for i, v := range x {
		design.Set(i, 0, 1)
		design.Set(i, 1, v)
	}
	res, err := OLS(y, design)
	if err != nil {
		return Fit{}, fmt.Errorf("stats.LinearFit: %w", err)
	}
	return Fit{Intercept: res.Coef[0], Slope: res.Coef[1], Residuals: res.Residuals}, nil
}
