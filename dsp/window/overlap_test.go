package window

import (
	"math"
	"testing"
)

func TestOverlapGainHann(t *testing.T) {
	tests := []struct {
		size, hop int
		want      float64
	}{
		{1024, 512, 1},
		{1024, 256, 0.5},
		{512, 128, 0.5},
		{2048, 1024, 1},
	}

	for _, tt := range tests {
		w := Generate(TypeHann, tt.size, WithPeriodic())

		gain, err := OverlapGain(w, tt.hop)
		if err != nil {
			t.Fatalf("OverlapGain(%d,%d): %v", tt.size, tt.hop, err)
		}

		if math.Abs(gain-tt.want) > 1e-9 {
			t.Fatalf("OverlapGain(%d,%d)=%v, want %v", tt.size, tt.hop, gain, tt.want)
		}
	}
}

func TestIsCOLA(t *testing.T) {
	periodic := Generate(TypeHann, 1024, WithPeriodic())
	if !IsCOLA(periodic, 512, 1e-9) {
		t.Fatal("periodic Hann at 50% overlap should be COLA")
	}

	if !IsCOLA(periodic, 256, 1e-9) {
		t.Fatal("periodic Hann at 75% overlap should be COLA")
	}

	symmetric := Generate(TypeHann, 1024)
	if IsCOLA(symmetric, 512, 1e-9) {
		t.Fatal("symmetric Hann should not be exactly COLA")
	}

	if IsCOLA(Generate(TypeRectangular, 16), 5, 1e-9) {
		t.Fatal("rectangular window at a non-divisor hop should not be COLA")
	}

	if !IsCOLA(Generate(TypeRectangular, 16), 4, 0) {
		t.Fatal("rectangular window at a divisor hop should be COLA")
	}
}

func TestOverlapSumInvalid(t *testing.T) {
	if _, err := OverlapSum(nil, 1); err == nil {
		t.Fatal("expected error for empty coefficients")
	}

	if _, err := OverlapSum([]float64{1, 1}, 0); err == nil {
		t.Fatal("expected error for zero hop")
	}

	if _, err := OverlapSum([]float64{1, 1}, 3); err == nil {
		t.Fatal("expected error for hop beyond length")
	}
}
