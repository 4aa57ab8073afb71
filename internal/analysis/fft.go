package analysis

import (
	"math"
	"math/cmplx"
)

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns magnitudes for bins 0..n/2-1. data must have a power
// of two length.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// DominantPeriod returns the period, in samples, of the strongest non-DC
// component of series. The mean is removed and the series zero padded to a
// power of two. It returns 0 when there is no oscillation to find.
func DominantPeriod(series []float64) float64 {
	if len(series) < 4 {
		return 0
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	n := 1
	for n < len(series) {
		n <<= 1
	}
	padded := make([]float64, n)
	for i, v := range series {
		padded[i] = v - mean
	}

	ps := PowerSpectrum(padded)
	best, bestPow := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > bestPow {
			best, bestPow = k, ps[k]
		}
	}
	if best == 0 || bestPow < 1e-12 {
		return 0
	}
	return float64(n) / float64(best)
}
