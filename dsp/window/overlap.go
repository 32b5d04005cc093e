package window

import "math"

// OverlapSum returns the per-sample sum of the window shifted by multiples of
// hop, evaluated over one hop period. A window satisfies the constant
// overlap-add property when every entry is equal.
func OverlapSum(coeffs []float64, hop int) ([]float64, error) {
	if len(coeffs) == 0 {
		return nil, errEmptyCoeffs
	}

	if hop < 1 || hop > len(coeffs) {
		return nil, errInvalidHop
	}

	sums := make([]float64, hop)
	for i, c := range coeffs {
		sums[i%hop] += c
	}

	return sums, nil
}

// OverlapGain returns the factor that scales overlap-added frames of the
// given window back to unity. For a COLA window at hop it equals hop/sum(w).
func OverlapGain(coeffs []float64, hop int) (float64, error) {
	sums, err := OverlapSum(coeffs, hop)
	if err != nil {
		return 0, err
	}

	mean := 0.0
	for _, s := range sums {
		mean += s
	}

	mean /= float64(len(sums))
	if mean == 0 {
		return 0, errZeroCoherentGain
	}

	return 1 / mean, nil
}

// IsCOLA reports whether the window overlap-adds to a constant at hop within
// the relative tolerance tol.
func IsCOLA(coeffs []float64, hop int, tol float64) bool {
	sums, err := OverlapSum(coeffs, hop)
	if err != nil {
		return false
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range sums {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}

	if hi <= 0 {
		return false
	}

	return (hi-lo)/hi <= tol
}
