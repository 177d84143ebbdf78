package effects_test

import (
	"fmt"

	"github.com/cwbudde/echolab/dsp/effects"
)

func ExampleAddEcho() {
	src := []float64{1, 0, 0, 0, 0}
	dst := make([]float64, len(src))

	effects.AddEcho(dst, src, 2, 0.5)
	fmt.Println(dst)

	// Output:
	// [1 0 0.5 0 0]
}
