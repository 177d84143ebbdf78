package core_test

import (
	"fmt"

	"github.com/cwbudde/echolab/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(core.WithSampleRate(48000))

	fmt.Printf("sampleRate=%.0f\n", cfg.SampleRate)

	// Output:
	// sampleRate=48000
}

func ExampleToFloat64() {
	wide := make([]float64, 3)
	core.ToFloat64(wide, []float32{0.5, -0.25, 1})
	fmt.Println(wide)

	// Output:
	// [0.5 -0.25 1]
}
