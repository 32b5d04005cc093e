package spectral

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lpcvoc/dsp/window"
	"github.com/cwbudde/algo-lpcvoc/internal/testutil"
)

func TestApplyAllPoleIdentity(t *testing.T) {
	for _, n := range []int{64, 1000, 1024} {
		x := testutil.DeterministicNoise(int64(n), 1, n)
		coeffs := make([]float64, 21)
		coeffs[0] = 1

		got, err := ApplyAllPole(x, coeffs)
		if err != nil {
			t.Fatalf("n=%d: ApplyAllPole: %v", n, err)
		}

		testutil.RequireSliceNearlyEqual(t, got, x, 1e-9)
	}
}

func TestApplyAllPoleIdentityWindowed(t *testing.T) {
	const n = 256

	x := testutil.DeterministicNoise(1, 1, n)

	f, err := NewFilter(n, WithWindow(window.TypeHann))
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	got := make([]float64, n)
	if err := f.ApplyAllPole(got, x, []float64{1}); err != nil {
		t.Fatalf("ApplyAllPole: %v", err)
	}

	want, err := window.ApplyCoefficients(x, window.Generate(window.TypeHann, n, window.WithPeriodic()))
	if err != nil {
		t.Fatalf("ApplyCoefficients: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)
}

func TestApplyConvolutionMatchesCircularConvolution(t *testing.T) {
	const n = 64

	x := testutil.DeterministicNoise(4, 1, n)
	coeffs := []float64{1, -0.5, 0.25, 0.1}

	got, err := ApplyConvolution(x, coeffs)
	if err != nil {
		t.Fatalf("ApplyConvolution: %v", err)
	}

	want := make([]float64, n)
	for i := range n {
		for k, a := range coeffs {
			want[i] += a * x[(i-k+n)%n]
		}
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-10)
}

func TestAllPoleInvertsConvolution(t *testing.T) {
	const n = 512

	x := testutil.DeterministicNoise(8, 1, n)
	coeffs := []float64{1, -0.9, 0.5, -0.2}

	f, err := NewFilter(n, WithoutWindow())
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	residual := make([]float64, n)
	if err := f.ApplyConvolution(residual, x, coeffs); err != nil {
		t.Fatalf("ApplyConvolution: %v", err)
	}

	// In place.
	if err := f.ApplyAllPole(residual, residual, coeffs); err != nil {
		t.Fatalf("ApplyAllPole: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, residual, x, 1e-9)
}

func TestApplyAllPoleClampsSpectralZeros(t *testing.T) {
	// A(z) = 1 + z^-1 vanishes at Nyquist.
	x := testutil.DeterministicNoise(2, 1, 32)

	got, err := ApplyAllPole(x, []float64{1, 1})
	if err != nil {
		t.Fatalf("ApplyAllPole: %v", err)
	}

	testutil.RequireFinite(t, got)

	f, err := NewFilter(32, WithoutWindow(), WithEpsilon(0.5))
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	bounded := make([]float64, 32)
	if err := f.ApplyAllPole(bounded, x, []float64{1, 1}); err != nil {
		t.Fatalf("ApplyAllPole: %v", err)
	}

	// |1/A| <= 2 everywhere, so the energy can grow at most fourfold.
	if Energy(bounded) > 4*Energy(x)+1e-9 {
		t.Fatalf("energy %v exceeds bound %v", Energy(bounded), 4*Energy(x))
	}
}

func TestFilterValidation(t *testing.T) {
	if _, err := NewFilter(7); err == nil {
		t.Fatal("expected error for odd size")
	}

	if _, err := NewFilter(8, WithEpsilon(0)); err == nil {
		t.Fatal("expected error for zero epsilon")
	}

	f, err := NewFilter(8)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	if f.Size() != 8 || len(f.Window()) != 8 {
		t.Fatalf("size=%d window=%d", f.Size(), len(f.Window()))
	}

	dst := make([]float64, 8)

	if err := f.ApplyAllPole(dst, make([]float64, 6), []float64{1}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err=%v, want ErrLengthMismatch", err)
	}

	if err := f.ApplyAllPole(dst, make([]float64, 8), nil); !errors.Is(err, ErrInvalidCoefficients) {
		t.Fatalf("err=%v, want ErrInvalidCoefficients", err)
	}

	if err := f.ApplyConvolution(dst, make([]float64, 8), make([]float64, 9)); !errors.Is(err, ErrInvalidCoefficients) {
		t.Fatalf("err=%v, want ErrInvalidCoefficients", err)
	}
}

func TestMatchPower(t *testing.T) {
	x := []float64{1, -1, 1, -1}

	gain := MatchPower(x, 16, 0)
	if math.Abs(gain-2) > 1e-12 {
		t.Fatalf("gain=%v, want 2", gain)
	}

	if e := Energy(x); math.Abs(e-16) > 1e-12 {
		t.Fatalf("energy=%v, want 16", e)
	}

	if gain := MatchPower(x, 1600, 5); gain != 5 {
		t.Fatalf("capped gain=%v, want 5", gain)
	}

	silent := make([]float64, 4)
	if gain := MatchPower(silent, 1, 0); gain != 1 {
		t.Fatalf("silent gain=%v, want 1", gain)
	}

	if gain := MatchPower(x, 0, 0); gain != 0 || Energy(x) != 0 {
		t.Fatalf("zero target gain=%v energy=%v", gain, Energy(x))
	}
}
