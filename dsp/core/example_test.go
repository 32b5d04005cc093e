package core_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-lpcvoc/dsp/core"
)

func ExampleSanitizeBlock() {
	buf := []float64{0.5, math.NaN(), math.Inf(-1)}
	n := core.SanitizeBlock(buf)

	fmt.Println(n, buf)

	// Output:
	// 2 [0.5 0 0]
}
