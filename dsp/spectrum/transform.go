package spectrum

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// RealFFT computes forward and inverse DFTs of real frames using the
// half-spectrum convention: n samples <-> n/2+1 bins.
//
// The forward transform is unscaled; the inverse carries the 1/n factor, so
// Inverse(Forward(x)) reproduces x. A RealFFT owns scratch memory and is not
// safe for concurrent use.
type RealFFT struct {
	n    int
	plan *algofft.Plan[complex128]
	mixd *fourier.FFT

	work  []complex128
	coeff []complex128
}

// NewRealFFT creates a transform for frames of n samples. n must be even.
func NewRealFFT(n int) (*RealFFT, error) {
	if n < 2 || n%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}

	f := &RealFFT{n: n}

	if isPowerOf2(n) {
		plan, err := algofft.NewPlan64(n)
		if err != nil {
			return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
		}

		f.plan = plan
		f.work = make([]complex128, n)

		return f, nil
	}

	f.mixd = fourier.NewFFT(n)
	f.coeff = make([]complex128, n/2+1)

	return f, nil
}

// Size returns the frame length n.
func (f *RealFFT) Size() int { return f.n }

// Bins returns the number of half-spectrum bins, n/2+1.
func (f *RealFFT) Bins() int { return f.n/2 + 1 }

// Forward writes the n/2+1 spectrum bins of frame into dst.
func (f *RealFFT) Forward(dst []complex128, frame []float64) error {
	if len(frame) != f.n {
		return fmt.Errorf("%w: frame has %d samples, want %d", ErrLengthMismatch, len(frame), f.n)
	}

	if len(dst) != f.Bins() {
		return fmt.Errorf("%w: spectrum has %d bins, want %d", ErrLengthMismatch, len(dst), f.Bins())
	}

	if f.plan == nil {
		f.mixd.Coefficients(dst, frame)
		return nil
	}

	for i, v := range frame {
		f.work[i] = complex(v, 0)
	}

	err := f.plan.Forward(f.work, f.work)
	if err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	copy(dst, f.work[:f.Bins()])

	return nil
}

// Inverse writes the n real samples described by the n/2+1 bins of spec into
// dst. The imaginary parts of the DC and Nyquist bins are ignored.
func (f *RealFFT) Inverse(dst []float64, spec []complex128) error {
	if len(spec) != f.Bins() {
		return fmt.Errorf("%w: spectrum has %d bins, want %d", ErrLengthMismatch, len(spec), f.Bins())
	}

	if len(dst) != f.n {
		return fmt.Errorf("%w: frame has %d samples, want %d", ErrLengthMismatch, len(dst), f.n)
	}

	half := f.n / 2

	if f.plan == nil {
		copy(f.coeff, spec)
		f.coeff[0] = complex(real(spec[0]), 0)
		f.coeff[half] = complex(real(spec[half]), 0)
		f.mixd.Sequence(dst, f.coeff)

		scale := 1 / float64(f.n)
		for i := range dst {
			dst[i] *= scale
		}

		return nil
	}

	// Hermitian extension of the half spectrum.
	f.work[0] = complex(real(spec[0]), 0)
	f.work[half] = complex(real(spec[half]), 0)

	for k := 1; k < half; k++ {
		v := spec[k]
		f.work[k] = v
		f.work[f.n-k] = complex(real(v), -imag(v))
	}

	err := f.plan.Inverse(f.work, f.work)
	if err != nil {
		return fmt.Errorf("spectrum: inverse FFT failed: %w", err)
	}

	for i := range dst {
		dst[i] = real(f.work[i])
	}

	return nil
}

// Forward returns the half spectrum of frame. It allocates a transform per
// call; reuse a [RealFFT] in hot paths.
func Forward(frame []float64) ([]complex128, error) {
	f, err := NewRealFFT(len(frame))
	if err != nil {
		return nil, err
	}

	out := make([]complex128, f.Bins())

	err = f.Forward(out, frame)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Inverse returns the real frame of length 2*(len(spec)-1) described by spec.
func Inverse(spec []complex128) ([]float64, error) {
	if len(spec) < 2 {
		return nil, fmt.Errorf("%w: %d bins", ErrInvalidSize, len(spec))
	}

	f, err := NewRealFFT(2 * (len(spec) - 1))
	if err != nil {
		return nil, err
	}

	out := make([]float64, f.Size())

	err = f.Inverse(out, spec)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func isPowerOf2(v int) bool {
	return v > 0 && (v&(v-1)) == 0
}

// NextPowerOf2 returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
