package stats

import "gonum.org/v1/gonum/stat"

// Window holds the trailing mean and sample standard deviation at one index.
// OK is false until window observations have accumulated.
type Window struct {
	Mean float64
	Std  float64
	OK   bool
}

// Rolling computes trailing-window statistics over exactly window points,
// the current one included. The standard deviation is the unbiased (n-1) one.
func Rolling(values []float64, window int) []Window {
	out := make([]Window, len(values))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		mean, std := stat.MeanStdDev(values[i-window+1:i+1], nil)
		out[i] = Window{Mean: mean, Std: std, OK: true}
	}
	return out
}
