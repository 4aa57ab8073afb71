package analysis

import "math"

// GrowthRate fits ln|x| at the local maxima of |x| against their index and
// returns the slope: the envelope changes by a factor exp(rate) per sample.
// Peaks below floor are ignored since they are numerical noise once the pole
// has settled. It returns 0 with fewer than two usable peaks.
func GrowthRate(series []float64, floor float64) float64 {
	var xs, ys []float64
	for i := 1; i < len(series)-1; i++ {
		a := math.Abs(series[i])
		if a < floor || a == 0 {
			continue
		}
		if a >= math.Abs(series[i-1]) && a > math.Abs(series[i+1]) {
			xs = append(xs, float64(i))
			ys = append(ys, math.Log(a))
		}
	}
	if len(xs) < 2 {
		return 0
	}
	return slope(xs, ys)
}

// slope is the least squares gradient of ys over xs.
func slope(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sx, sy, sxx, sxy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
