package spectrum_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lpcvoc/dsp/spectrum"
)

func ExampleMagnitude() {
	bins := []complex128{1 + 0i, 0 + 1i, -1 + 0i}
	mag := spectrum.Magnitude(bins)
	fmt.Printf("%.1f %.1f %.1f\n", mag[0], mag[1], mag[2])
	// Output:
	// 1.0 1.0 1.0
}

func ExampleRealFFT() {
	frame := []float64{1, 0, -1, 0}

	f, _ := spectrum.NewRealFFT(len(frame))
	bins := make([]complex128, f.Bins())
	_ = f.Forward(bins, frame)

	mag := spectrum.Magnitude(bins)
	fmt.Printf("%.1f %.1f %.1f\n", mag[0], mag[1], mag[2])

	out := make([]float64, f.Size())
	_ = f.Inverse(out, bins)

	maxErr := 0.0
	for i := range out {
		maxErr = math.Max(maxErr, math.Abs(out[i]-frame[i]))
	}

	fmt.Println(maxErr < 1e-12)
	// Output:
	// 0.0 2.0 0.0
	// true
}
