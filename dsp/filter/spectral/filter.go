package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-lpcvoc/dsp/spectrum"
	"github.com/cwbudde/algo-lpcvoc/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// DefaultEpsilon is the minimum denominator magnitude used by ApplyAllPole.
const DefaultEpsilon = 1e-9

// Option configures a Filter.
type Option func(*config) error

type config struct {
	windowed   bool
	windowType window.Type
	epsilon    float64
}

func defaultConfig() config {
	return config{
		windowed:   true,
		windowType: window.TypeHann,
		epsilon:    DefaultEpsilon,
	}
}

// WithWindow selects the synthesis window applied after the inverse
// transform. The periodic form is used so frames overlap-add to a constant.
func WithWindow(t window.Type) Option {
	return func(c *config) error {
		c.windowed = true
		c.windowType = t

		return nil
	}
}

// WithoutWindow disables the synthesis window.
func WithoutWindow() Option {
	return func(c *config) error {
		c.windowed = false
		return nil
	}
}

// WithEpsilon sets the denominator clamp for all-pole filtering.
func WithEpsilon(eps float64) Option {
	return func(c *config) error {
		if !(eps > 0) || math.IsInf(eps, 0) {
			return fmt.Errorf("spectral: epsilon must be > 0: %g", eps)
		}

		c.epsilon = eps

		return nil
	}
}

// Filter holds the transform and scratch buffers for one frame size.
// It is not safe for concurrent use.
type Filter struct {
	n      int
	eps    float64
	fft    *spectrum.RealFFT
	window []float64

	padded []float64
	xSpec  []complex128
	aSpec  []complex128
}

// NewFilter creates a filter for frames of n samples. n must be even.
func NewFilter(n int, opts ...Option) (*Filter, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	fft, err := spectrum.NewRealFFT(n)
	if err != nil {
		return nil, fmt.Errorf("spectral: %w", err)
	}

	f := &Filter{
		n:      n,
		eps:    cfg.epsilon,
		fft:    fft,
		padded: make([]float64, n),
		xSpec:  make([]complex128, fft.Bins()),
		aSpec:  make([]complex128, fft.Bins()),
	}

	if cfg.windowed {
		f.window = window.Generate(cfg.windowType, n, window.WithPeriodic())
	}

	return f, nil
}

// Size returns the frame length.
func (f *Filter) Size() int { return f.n }

// Window returns the synthesis window, or nil when disabled.
func (f *Filter) Window() []float64 { return f.window }

// ApplyAllPole filters excitation through 1/A(z) and writes the windowed
// result to dst. Bins where |A| falls below epsilon are clamped to epsilon
// magnitude with their phase kept. dst may alias excitation.
func (f *Filter) ApplyAllPole(dst, excitation, coeffs []float64) error {
	if err := f.transform(excitation, coeffs, len(dst)); err != nil {
		return err
	}

	for i, a := range f.aSpec {
		mag := cmplx.Abs(a)
		switch {
		case mag == 0:
			a = complex(f.eps, 0)
		case mag < f.eps:
			a *= complex(f.eps/mag, 0)
		}

		f.xSpec[i] /= a
	}

	return f.finish(dst)
}

// ApplyConvolution filters frame through the FIR A(z) and writes the
// windowed result to dst. dst may alias frame.
func (f *Filter) ApplyConvolution(dst, frame, coeffs []float64) error {
	if err := f.transform(frame, coeffs, len(dst)); err != nil {
		return err
	}

	for i, a := range f.aSpec {
		f.xSpec[i] *= a
	}

	return f.finish(dst)
}

func (f *Filter) transform(frame, coeffs []float64, dstLen int) error {
	if len(frame) != f.n || dstLen != f.n {
		return fmt.Errorf("%w: frame %d, dst %d, want %d", ErrLengthMismatch, len(frame), dstLen, f.n)
	}

	if len(coeffs) == 0 || len(coeffs) > f.n {
		return fmt.Errorf("%w: %d coefficients for frame size %d", ErrInvalidCoefficients, len(coeffs), f.n)
	}

	if err := f.fft.Forward(f.xSpec, frame); err != nil {
		return err
	}

	copy(f.padded, coeffs)
	clear(f.padded[len(coeffs):])

	return f.fft.Forward(f.aSpec, f.padded)
}

func (f *Filter) finish(dst []float64) error {
	if err := f.fft.Inverse(dst, f.xSpec); err != nil {
		return err
	}

	if f.window != nil {
		vecmath.MulBlockInPlace(dst, f.window)
	}

	return nil
}

// ApplyAllPole is a convenience wrapper that filters a single unwindowed
// frame through 1/A(z).
func ApplyAllPole(excitation, coeffs []float64) ([]float64, error) {
	f, err := NewFilter(len(excitation), WithoutWindow())
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(excitation))
	if err := f.ApplyAllPole(out, excitation, coeffs); err != nil {
		return nil, err
	}

	return out, nil
}

// ApplyConvolution is a convenience wrapper that filters a single unwindowed
// frame through A(z).
func ApplyConvolution(frame, coeffs []float64) ([]float64, error) {
	f, err := NewFilter(len(frame), WithoutWindow())
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(frame))
	if err := f.ApplyConvolution(out, frame, coeffs); err != nil {
		return nil, err
	}

	return out, nil
}
