package lpc

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lpcvoc/internal/testutil"
)

func TestAutocorrelateKnownAnswer(t *testing.T) {
	frame := []float64{2, 3, 4, 6, 9, 7, 2, 1}
	want := []float64{1, 0.454, -0.318, -0.539, -0.347, -0.046, 0.164, 0.132}

	methods := map[string]func([]float64, int) ([]float64, error){
		"time": Autocorrelate,
		"fft":  AutocorrelateFFT,
	}

	for name, fn := range methods {
		t.Run(name, func(t *testing.T) {
			got, err := fn(frame, len(want)-1)
			if err != nil {
				t.Fatalf("autocorrelate: %v", err)
			}

			testutil.RequireSliceNearlyEqual(t, got, want, 0.01)
		})
	}
}

func TestAutocorrelateFFTMatchesTimeDomain(t *testing.T) {
	for _, n := range []int{64, 1000, 1024} {
		frame := testutil.DeterministicNoise(int64(n), 1, n)

		td, err := Autocorrelate(frame, 32)
		if err != nil {
			t.Fatalf("Autocorrelate: %v", err)
		}

		fd, err := AutocorrelateFFT(frame, 32)
		if err != nil {
			t.Fatalf("AutocorrelateFFT: %v", err)
		}

		testutil.RequireSliceNearlyEqual(t, fd, td, 1e-9)
	}
}

func TestAutocorrelateBound(t *testing.T) {
	frame := testutil.Concat(
		testutil.DeterministicSine(440, 8000, 0.7, 256),
		testutil.DeterministicNoise(7, 0.2, 256),
	)

	r, err := Autocorrelate(frame, 40)
	if err != nil {
		t.Fatalf("Autocorrelate: %v", err)
	}

	if r[0] != 1 {
		t.Fatalf("R[0]=%v, want 1", r[0])
	}

	for k, v := range r {
		if math.Abs(v) > r[0]+1e-12 {
			t.Fatalf("|R[%d]|=%v exceeds R[0]", k, math.Abs(v))
		}
	}
}

func TestAutocorrelateErrors(t *testing.T) {
	frame := []float64{1, 2, 3, 4}

	for _, lag := range []int{0, 4, 10} {
		if _, err := Autocorrelate(frame, lag); !errors.Is(err, ErrInvalidModelOrder) {
			t.Fatalf("lag %d: err=%v, want ErrInvalidModelOrder", lag, err)
		}
	}

	flat := testutil.DC(0.5, 16)
	if _, err := Autocorrelate(flat, 4); !errors.Is(err, ErrDegenerateModel) {
		t.Fatalf("constant frame: err=%v, want ErrDegenerateModel", err)
	}

	if _, err := AutocorrelateFFT(flat, 4); !errors.Is(err, ErrDegenerateModel) {
		t.Fatalf("constant frame (fft): err=%v, want ErrDegenerateModel", err)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{MethodTimeDomain, MethodFFT} {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMethod(%q)=%v,%v", m.String(), got, err)
		}
	}

	if _, err := ParseMethod("burg"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
