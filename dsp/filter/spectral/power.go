package spectral

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Energy returns the sum of squares of x.
func Energy(x []float64) float64 {
	return vecmath.DotProduct(x, x)
}

// MatchPower scales x in place so its energy equals target and returns the
// applied gain. The gain is limited to maxGain when maxGain > 0. A
// non-positive target silences x and returns 0; a frame without energy is
// left unchanged and 1 is returned.
func MatchPower(x []float64, target, maxGain float64) float64 {
	if !(target > 0) {
		clear(x)
		return 0
	}

	current := Energy(x)
	if !(current > 0) || math.IsInf(current, 0) {
		return 1
	}

	gain := math.Sqrt(target / current)
	if maxGain > 0 && gain > maxGain {
		gain = maxGain
	}

	vecmath.ScaleBlockInPlace(x, gain)

	return gain
}
