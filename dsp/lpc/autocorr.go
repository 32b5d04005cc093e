package lpc

import (
	"fmt"

	"github.com/cwbudde/algo-lpcvoc/dsp/spectrum"
	"github.com/cwbudde/algo-vecmath"
)

// Method selects the autocorrelation estimator.
type Method int

const (
	// MethodTimeDomain sums lagged products directly.
	MethodTimeDomain Method = iota
	// MethodFFT uses IFFT(|FFT(x)|^2) on a zero-padded frame.
	MethodFFT
)

// String returns the lowercase method name.
func (m Method) String() string {
	switch m {
	case MethodTimeDomain:
		return "time"
	case MethodFFT:
		return "fft"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps "time" or "fft" to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "time", "":
		return MethodTimeDomain, nil
	case "fft":
		return MethodFFT, nil
	}

	return MethodTimeDomain, fmt.Errorf("lpc: unknown autocorrelation method %q", s)
}

// Autocorrelate returns R[0..maxLag] of frame, mean-centred and normalized so
// that R[0] = 1.
func Autocorrelate(frame []float64, maxLag int) ([]float64, error) {
	if err := validateLag(len(frame), maxLag); err != nil {
		return nil, err
	}

	r := make([]float64, maxLag+1)
	centred := make([]float64, len(frame))

	if err := autocorrTime(r, frame, centred); err != nil {
		return nil, err
	}

	return r, nil
}

// AutocorrelateFFT is equivalent to [Autocorrelate] but computes all lags
// through a real FFT of size NextPowerOf2(2*len(frame)).
func AutocorrelateFFT(frame []float64, maxLag int) ([]float64, error) {
	if err := validateLag(len(frame), maxLag); err != nil {
		return nil, err
	}

	ac, err := newFFTAutocorr(len(frame))
	if err != nil {
		return nil, err
	}

	r := make([]float64, maxLag+1)
	if err := ac.compute(r, frame); err != nil {
		return nil, err
	}

	return r, nil
}

func validateLag(n, maxLag int) error {
	if maxLag < 1 || maxLag >= n {
		return fmt.Errorf("%w: lag %d for frame of %d samples", ErrInvalidModelOrder, maxLag, n)
	}

	return nil
}

// centre writes frame minus its mean into dst and returns the sum of squares.
func centre(dst, frame []float64) float64 {
	mean := vecmath.Sum(frame) / float64(len(frame))
	for i, v := range frame {
		dst[i] = v - mean
	}

	return vecmath.DotProduct(dst, dst)
}

func autocorrTime(r, frame, centred []float64) error {
	energy := centre(centred, frame)
	if energy <= 0 {
		return fmt.Errorf("%w: zero-energy frame", ErrDegenerateModel)
	}

	n := len(centred)
	r[0] = 1

	for k := 1; k < len(r); k++ {
		r[k] = vecmath.DotProduct(centred[:n-k], centred[k:]) / energy
	}

	return nil
}

type fftAutocorr struct {
	n    int
	fft  *spectrum.RealFFT
	buf  []float64
	spec []complex128
}

func newFFTAutocorr(n int) (*fftAutocorr, error) {
	size := spectrum.NextPowerOf2(2 * n)

	fft, err := spectrum.NewRealFFT(size)
	if err != nil {
		return nil, err
	}

	return &fftAutocorr{
		n:    n,
		fft:  fft,
		buf:  make([]float64, size),
		spec: make([]complex128, fft.Bins()),
	}, nil
}

func (a *fftAutocorr) compute(r, frame []float64) error {
	if len(frame) != a.n {
		return fmt.Errorf("%w: frame has %d samples, want %d", ErrLengthMismatch, len(frame), a.n)
	}

	energy := centre(a.buf[:a.n], frame)
	if energy <= 0 {
		return fmt.Errorf("%w: zero-energy frame", ErrDegenerateModel)
	}

	clear(a.buf[a.n:])

	if err := a.fft.Forward(a.spec, a.buf); err != nil {
		return err
	}

	for i, c := range a.spec {
		re, im := real(c), imag(c)
		a.spec[i] = complex(re*re+im*im, 0)
	}

	if err := a.fft.Inverse(a.buf, a.spec); err != nil {
		return err
	}

	r0 := a.buf[0]
	if r0 <= 0 {
		return fmt.Errorf("%w: zero-energy frame", ErrDegenerateModel)
	}

	for k := range r {
		r[k] = a.buf[k] / r0
	}

	r[0] = 1

	return nil
}
