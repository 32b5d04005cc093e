// Package frequency computes shape descriptors of a one-sided magnitude
// spectrum, such as an LPC envelope.
package frequency

import "math"

// Stats holds spectral shape descriptors.
type Stats struct {
	BinCount  int
	Centroid  float64 // Hz
	Spread    float64 // Hz, standard deviation around the centroid
	Flatness  float64 // geometric over arithmetic mean, 0..1
	Rolloff   float64 // Hz below which 85% of the energy lies
	Bandwidth float64 // Hz, 3 dB width of the strongest peak
}

// DefaultRolloff is the energy fraction used by [Calculate].
const DefaultRolloff = 0.85

// binFreq returns the frequency of bin i; the transform size is
// 2*(binCount-1).
func binFreq(i int, sampleRate float64, binCount int) float64 {
	return float64(i) * sampleRate / float64(2*(binCount-1))
}

// Calculate computes all descriptors. magnitude is linear, DC to Nyquist.
func Calculate(magnitude []float64, sampleRate float64) Stats {
	s := Stats{BinCount: len(magnitude)}
	if len(magnitude) < 2 {
		return s
	}

	s.Centroid = Centroid(magnitude, sampleRate)
	s.Spread = spread(magnitude, sampleRate, s.Centroid)
	s.Flatness = Flatness(magnitude)
	s.Rolloff = Rolloff(magnitude, sampleRate, DefaultRolloff)

	peak := 0
	for i, v := range magnitude {
		if v > magnitude[peak] {
			peak = i
		}
	}

	s.Bandwidth = PeakBandwidth(magnitude, sampleRate, peak)

	return s
}

// Centroid returns the magnitude-weighted mean frequency in Hz.
func Centroid(magnitude []float64, sampleRate float64) float64 {
	n := len(magnitude)
	if n < 2 {
		return 0
	}

	var sum, weighted float64
	for i, v := range magnitude {
		sum += v
		weighted += binFreq(i, sampleRate, n) * v
	}

	if sum == 0 {
		return 0
	}

	return weighted / sum
}

func spread(magnitude []float64, sampleRate, centroid float64) float64 {
	n := len(magnitude)

	var sum, weighted float64
	for i, v := range magnitude {
		d := binFreq(i, sampleRate, n) - centroid
		sum += v
		weighted += d * d * v
	}

	if sum == 0 {
		return 0
	}

	return math.Sqrt(weighted / sum)
}

// Flatness returns the spectral flatness of bins 1..N-1. A zero bin makes
// the geometric mean, and hence the result, zero.
func Flatness(magnitude []float64) float64 {
	n := len(magnitude)
	if n < 2 {
		return 0
	}

	var sumLin, sumLog float64

	for _, v := range magnitude[1:] {
		if v <= 0 {
			return 0
		}

		sumLin += v
		sumLog += math.Log(v)
	}

	bins := float64(n - 1)

	return math.Exp(sumLog/bins) / (sumLin / bins)
}

// Rolloff returns the frequency below which fraction of the energy lies.
func Rolloff(magnitude []float64, sampleRate, fraction float64) float64 {
	n := len(magnitude)
	if n < 2 {
		return 0
	}

	var total float64
	for _, v := range magnitude {
		total += v * v
	}

	if total == 0 {
		return 0
	}

	var cum float64

	for i, v := range magnitude {
		cum += v * v
		if cum >= fraction*total {
			return binFreq(i, sampleRate, n)
		}
	}

	return binFreq(n-1, sampleRate, n)
}

// PeakBandwidth returns the 3 dB width in Hz of the peak at bin, with the
// crossing points linearly interpolated between bins. A search that runs
// off the spectrum edge stops at DC or Nyquist.
func PeakBandwidth(magnitude []float64, sampleRate float64, bin int) float64 {
	n := len(magnitude)
	if n < 2 || bin < 0 || bin >= n || magnitude[bin] <= 0 {
		return 0
	}

	threshold := magnitude[bin] / math.Sqrt2

	lower := 0.0
	for i := bin; i >= 1; i-- {
		if magnitude[i-1] <= threshold {
			lower = crossing(i-1, magnitude[i-1], magnitude[i], threshold, sampleRate, n)
			break
		}
	}

	upper := binFreq(n-1, sampleRate, n)
	for i := bin; i < n-1; i++ {
		if magnitude[i+1] <= threshold {
			upper = crossing(i, magnitude[i], magnitude[i+1], threshold, sampleRate, n)
			break
		}
	}

	return math.Max(0, upper-lower)
}

// crossing interpolates where the magnitude between bins lo and lo+1
// reaches threshold.
func crossing(lo int, magLo, magHi, threshold, sampleRate float64, n int) float64 {
	fLo := binFreq(lo, sampleRate, n)
	fHi := binFreq(lo+1, sampleRate, n)

	if magHi == magLo {
		return (fLo + fHi) / 2
	}

	t := (threshold - magLo) / (magHi - magLo)

	return fLo + t*(fHi-fLo)
}
