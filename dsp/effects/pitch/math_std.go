//go:build !fastmath

package pitch

import "math"

// mathSqrt is the bin magnitude square root used by the phase vocoder.
func mathSqrt(x float64) float64 {
	return math.Sqrt(x)
}
