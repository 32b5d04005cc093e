package frame

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-lpcvoc/dsp/window"
	"github.com/cwbudde/algo-lpcvoc/internal/testutil"
)

func windowedCopy(w []float64) ProcessFunc {
	return func(out []float64, in [][]float64) {
		for i := range out {
			out[i] = in[0][i] * w[i]
		}
	}
}

func runEngine(t *testing.T, e *Engine, x []float64) ([]float64, int) {
	t.Helper()

	out := make([]float64, len(x))
	preroll := 0

	for i, v := range x {
		y, ok := e.Push(v)
		if !ok {
			preroll++
		}

		out[i] = y
	}

	return out, preroll
}

func TestEngineReconstructsDelayedInput(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap float64
		win     window.Type
	}{
		{name: "hann-50", size: 64, overlap: 0.5, win: window.TypeHann},
		{name: "hann-75", size: 64, overlap: 0.75, win: window.TypeHann},
		{name: "rect-0", size: 32, overlap: 0, win: window.TypeRectangular},
		{name: "hann-50-odd-tier", size: 1000, overlap: 0.5, win: window.TypeHann},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hop, err := HopForOverlap(tt.size, tt.overlap)
			if err != nil {
				t.Fatalf("HopForOverlap: %v", err)
			}

			w := window.Generate(tt.win, tt.size, window.WithPeriodic())

			gain, err := window.OverlapGain(w, hop)
			if err != nil {
				t.Fatalf("OverlapGain: %v", err)
			}

			e, err := New(tt.size, hop, windowedCopy(w), WithGain(gain))
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			x := testutil.DeterministicNoise(1, 1, 6*tt.size)
			y, preroll := runEngine(t, e, x)

			if preroll != tt.size {
				t.Fatalf("pre-roll=%d, want %d", preroll, tt.size)
			}

			if e.Latency() != tt.size {
				t.Fatalf("Latency=%d, want %d", e.Latency(), tt.size)
			}

			for i := range tt.size {
				if y[i] != 0 {
					t.Fatalf("pre-roll output[%d]=%v, want 0", i, y[i])
				}
			}

			testutil.RequireSliceNearlyEqual(t, y[tt.size:], x[:len(x)-tt.size], 1e-12)
		})
	}
}

func TestPrerollIsSilentWhenFramesFillWholeWindow(t *testing.T) {
	const size = 16

	// Spread energy over every slot, including those that stand for time
	// before the first input.
	e, err := New(size, size/2, func(out []float64, _ [][]float64) {
		for i := range out {
			out[i] = 1
		}
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := range 3 * size {
		y, ok := e.Push(1)

		if i < size {
			if ok || y != 0 {
				t.Fatalf("pre-roll push %d returned %v, %v", i, y, ok)
			}

			continue
		}

		if !ok || y == 0 {
			t.Fatalf("push %d returned %v, %v after pre-roll", i, y, ok)
		}
	}
}

func TestEngineFrameOrder(t *testing.T) {
	var first []float64

	e, err := New(8, 4, func(out []float64, in [][]float64) {
		if first == nil {
			first = append([]float64(nil), in[0]...)
		}
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 1; i <= 4; i++ {
		e.Push(float64(i))
	}

	testutil.RequireSliceNearlyEqual(t, first, []float64{0, 0, 0, 0, 1, 2, 3, 4}, 0)

	if e.Frames() != 1 {
		t.Fatalf("Frames=%d, want 1", e.Frames())
	}
}

func TestEngineStateDuringCallback(t *testing.T) {
	var e *Engine

	seen := 0

	e, err := New(4, 2, func(out []float64, in [][]float64) {
		if e.State() != StateFrameReady {
			t.Fatalf("state in callback=%v, want %v", e.State(), StateFrameReady)
		}

		seen++
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for range 10 {
		e.Push(1)

		if e.State() != StateFilling {
			t.Fatalf("state after Push=%v, want %v", e.State(), StateFilling)
		}
	}

	if seen != 5 {
		t.Fatalf("callbacks=%d, want 5", seen)
	}
}

func TestEngineMultipleInputs(t *testing.T) {
	const size = 16

	e, err := New(size, size, func(out []float64, in [][]float64) {
		copy(out, in[1])
	}, WithInputs(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := testutil.DeterministicNoise(1, 1, 4*size)
	b := testutil.DeterministicNoise(2, 1, 4*size)

	y := make([]float64, len(a))
	for i := range a {
		y[i], _ = e.Push(a[i], b[i])
	}

	testutil.RequireSliceNearlyEqual(t, y[size:], b[:len(b)-size], 0)

	if e.Inputs() != 2 {
		t.Fatalf("Inputs=%d, want 2", e.Inputs())
	}
}

func TestEngineResetAndTrace(t *testing.T) {
	var traced int

	tr := TracerFunc(func(in, out float64) { traced++ })

	e, err := New(8, 4, func(out []float64, in [][]float64) { copy(out, in[0]) }, WithTrace(tr))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for range 20 {
		e.Push(1)
	}

	if traced != 20 {
		t.Fatalf("traced=%d, want 20", traced)
	}

	e.Reset()

	if e.Frames() != 0 {
		t.Fatalf("Frames after Reset=%d", e.Frames())
	}

	for i := range 8 {
		if y, ok := e.Push(0); ok || y != 0 {
			t.Fatalf("push %d after Reset returned %v, %v", i, y, ok)
		}
	}
}

func TestHopForOverlap(t *testing.T) {
	tests := []struct {
		size    int
		overlap float64
		want    int
	}{
		{1024, 0, 1024},
		{1024, 0.5, 512},
		{1024, 0.75, 256},
		{4, 0.99, 1},
		{4000, 0.5, 2000},
	}

	for _, tt := range tests {
		got, err := HopForOverlap(tt.size, tt.overlap)
		if err != nil {
			t.Fatalf("HopForOverlap(%d,%v): %v", tt.size, tt.overlap, err)
		}

		if got != tt.want {
			t.Fatalf("HopForOverlap(%d,%v)=%d, want %d", tt.size, tt.overlap, got, tt.want)
		}
	}

	if _, err := HopForOverlap(1024, 1); !errors.Is(err, ErrInvalidOverlap) {
		t.Fatalf("err=%v, want ErrInvalidOverlap", err)
	}

	if _, err := HopForOverlap(1, 0.5); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("err=%v, want ErrInvalidSize", err)
	}
}

func TestNewValidation(t *testing.T) {
	nop := func(out []float64, in [][]float64) {}

	if _, err := New(1, 1, nop); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("err=%v, want ErrInvalidSize", err)
	}

	if _, err := New(8, 9, nop); !errors.Is(err, ErrInvalidHop) {
		t.Fatalf("err=%v, want ErrInvalidHop", err)
	}

	if _, err := New(8, 4, nil); err == nil {
		t.Fatal("expected error for nil callback")
	}

	if _, err := New(8, 4, nop, WithInputs(0)); err == nil {
		t.Fatal("expected error for zero inputs")
	}
}
