package lpc

import (
	"fmt"

	"github.com/cwbudde/algo-lpcvoc/dsp/core"
)

// Residual runs the analysis filter A(z) over x with zero initial state:
//
//	e[n] = sum_{k=0..p} a[k] x[n-k]
func Residual(dst, x, coeffs []float64) error {
	if len(dst) != len(x) {
		return fmt.Errorf("%w: dst has %d samples, want %d", ErrLengthMismatch, len(dst), len(x))
	}

	if len(coeffs) == 0 {
		return fmt.Errorf("%w: empty coefficient vector", ErrInvalidModelOrder)
	}

	// Descending n so dst may alias x.
	for n := len(x) - 1; n >= 0; n-- {
		acc := 0.0
		for k := 0; k < len(coeffs) && k <= n; k++ {
			acc += coeffs[k] * x[n-k]
		}

		dst[n] = acc
	}

	return nil
}

// Synthesize runs the all-pole filter 1/A(z) over excitation with zero
// initial state and returns the output.
func Synthesize(excitation, coeffs []float64) ([]float64, error) {
	s, err := NewSynthesizer(len(coeffs) - 1)
	if err != nil {
		return nil, err
	}

	if err := s.SetCoefficients(coeffs); err != nil {
		return nil, err
	}

	out := make([]float64, len(excitation))
	s.Process(out, excitation)

	return out, nil
}

// Synthesizer is a direct-form all-pole filter
//
//	y[n] = e[n] - sum_{k=1..p} a[k] y[n-k]
//
// whose output history persists across calls, so consecutive blocks join
// without a transient. Coefficients may be swapped between blocks.
type Synthesizer struct {
	coeffs []float64
	hist   []float64
	pos    int
}

// NewSynthesizer creates a filter of the given order initialized to A(z) = 1.
func NewSynthesizer(order int) (*Synthesizer, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidModelOrder, order)
	}

	s := &Synthesizer{
		coeffs: make([]float64, order+1),
		hist:   make([]float64, order),
	}
	s.coeffs[0] = 1

	return s, nil
}

// SetCoefficients installs a[0..p]. a[0] is assumed to be 1.
func (s *Synthesizer) SetCoefficients(coeffs []float64) error {
	if len(coeffs) != len(s.coeffs) {
		return fmt.Errorf("%w: %d coefficients, want %d", ErrLengthMismatch, len(coeffs), len(s.coeffs))
	}

	copy(s.coeffs, coeffs)

	return nil
}

// ProcessSample filters one excitation sample.
func (s *Synthesizer) ProcessSample(e float64) float64 {
	p := len(s.hist)
	y := e

	// hist[pos-1] is y[n-1], wrapping backwards.
	idx := s.pos
	for k := 1; k <= p; k++ {
		idx--
		if idx < 0 {
			idx = p - 1
		}

		y -= s.coeffs[k] * s.hist[idx]
	}

	y = core.FlushDenormals(y)

	s.hist[s.pos] = y

	s.pos++
	if s.pos == p {
		s.pos = 0
	}

	return y
}

// Process filters src into dst. dst and src may alias.
func (s *Synthesizer) Process(dst, src []float64) {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = s.ProcessSample(src[i])
	}
}

// Reset clears the output history.
func (s *Synthesizer) Reset() {
	clear(s.hist)
	s.pos = 0
}
