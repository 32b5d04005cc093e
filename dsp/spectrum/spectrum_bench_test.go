package spectrum

import (
	"testing"

	"github.com/cwbudde/algo-lpcvoc/internal/testutil"
)

func BenchmarkRealFFTRoundTrip(b *testing.B) {
	sizes := []struct {
		name string
		size int
	}{
		{"512", 512},
		{"1K", 1024},
		{"2K", 2048},
		{"4000", 4000},
	}

	for _, testCase := range sizes {
		b.Run(testCase.name, func(b *testing.B) {
			f, err := NewRealFFT(testCase.size)
			if err != nil {
				b.Fatalf("NewRealFFT() error = %v", err)
			}

			frame := testutil.DeterministicNoise(1, 1, testCase.size)
			bins := make([]complex128, f.Bins())
			out := make([]float64, testCase.size)

			b.SetBytes(int64(testCase.size * 8))
			b.ResetTimer()

			for range b.N {
				_ = f.Forward(bins, frame)
				_ = f.Inverse(out, bins)
			}
		})
	}
}

func BenchmarkPower(b *testing.B) {
	inData := make([]complex128, 1025)
	for i := range inData {
		inData[i] = complex(float64(i)/10.0, float64(1025-i)/10.0)
	}

	dst := make([]float64, len(inData))

	b.SetBytes(int64(len(inData) * 16))
	b.ResetTimer()

	for range b.N {
		PowerInto(dst, inData)
	}
}
