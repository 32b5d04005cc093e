package lpc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lpcvoc/dsp/spectrum"
)

const envelopeFloor = 1e-9

// Envelope returns the magnitude response gain/|A(e^jw)| of the model on the
// nfft/2+1 bins of an nfft-point transform.
func Envelope(m *Model, nfft int) ([]float64, error) {
	if nfft < len(m.Coefficients) {
		return nil, fmt.Errorf("%w: nfft %d shorter than %d coefficients", ErrLengthMismatch, nfft, len(m.Coefficients))
	}

	padded := make([]float64, nfft)
	copy(padded, m.Coefficients)

	spec, err := spectrum.Forward(padded)
	if err != nil {
		return nil, err
	}

	env := spectrum.Magnitude(spec)

	gain := m.Gain()
	if gain == 0 {
		gain = 1
	}

	for i, v := range env {
		env[i] = gain / math.Max(v, envelopeFloor)
	}

	return env, nil
}

// Peak is a local maximum of an envelope.
type Peak struct {
	Bin       int
	Frequency float64
	Magnitude float64
}

// EnvelopePeaks returns the local maxima of env in ascending frequency,
// converting bins to Hz for the given sample rate. At most limit peaks are
// returned when limit > 0.
func EnvelopePeaks(env []float64, sampleRate float64, limit int) []Peak {
	if len(env) < 3 {
		return nil
	}

	nfft := 2 * (len(env) - 1)

	var peaks []Peak

	for i := 1; i < len(env)-1; i++ {
		if env[i] > env[i-1] && env[i] >= env[i+1] {
			peaks = append(peaks, Peak{
				Bin:       i,
				Frequency: float64(i) * sampleRate / float64(nfft),
				Magnitude: env[i],
			})

			if limit > 0 && len(peaks) == limit {
				break
			}
		}
	}

	return peaks
}
