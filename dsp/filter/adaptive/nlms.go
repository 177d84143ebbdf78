package adaptive

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/echolab/dsp/delay"
)

// Epsilon keeps the normalized step finite when the tap register is silent.
const Epsilon = 1e-10

// NLMS is a normalized least-mean-squares adaptive filter. Weights are held
// at single precision: every update is rounded to float32.
type NLMS struct {
	stepSize float64
	taps     *delay.Line
	weights  []float64
	err      float64
}

// New creates an NLMS filter with the given tap count and adaptation rate.
// Tap registers and weights start at zero. stepSize is not range-checked;
// values outside (0, 2) simply make the filter diverge.
func New(taps int, stepSize float64) (*NLMS, error) {
	if taps < 0 {
		return nil, fmt.Errorf("adaptive: tap count must be >= 0: %d", taps)
	}
	line, err := delay.New(taps)
	if err != nil {
		return nil, fmt.Errorf("adaptive: %w", err)
	}
	return &NLMS{
		stepSize: stepSize,
		taps:     line,
		weights:  make([]float64, taps),
	}, nil
}

// ProcessSample pushes x into the tap register, returns the prediction
//
//	y = sum_j w[j] * x[n-j]
//
// and then adapts the weights, rounding each to float32:
//
//	w[j] += mu / (sum_j x[n-j]^2 + Epsilon) * (x - y) * x[n-j]
func (f *NLMS) ProcessSample(x float64) float64 {
	f.taps.Push(x)
	window := f.taps.Taps()

	y := floats.Dot(f.weights, window)

	f.err = x - y
	power := floats.Dot(window, window)
	step := f.stepSize / (power + Epsilon)
	g := step * f.err
	for j, xj := range window {
		f.weights[j] = float64(float32(f.weights[j] + g*xj))
	}

	return y
}

// ProcessBlock filters buf in place.
func (f *NLMS) ProcessBlock(buf []float64) {
	f.ProcessBlockTo(buf, buf)
}

// ProcessBlockTo filters src into dst. Both slices must have the same length.
// dst may be src.
func (f *NLMS) ProcessBlockTo(dst, src []float64) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("adaptive: length mismatch: dst %d, src %d", len(dst), len(src)))
	}
	for i, x := range src {
		dst[i] = f.ProcessSample(x)
	}
}

// Reset clears the tap register and the learned weights.
func (f *NLMS) Reset() {
	f.taps.Reset()
	for i := range f.weights {
		f.weights[i] = 0
	}
	f.err = 0
}

// Len returns the tap count.
func (f *NLMS) Len() int {
	return len(f.weights)
}

// StepSize returns the adaptation rate.
func (f *NLMS) StepSize() float64 {
	return f.stepSize
}

// Error returns the residual of the most recent sample.
func (f *NLMS) Error() float64 {
	return f.err
}

// Weights returns a copy of the current weight vector.
func (f *NLMS) Weights() []float64 {
	w := make([]float64, len(f.weights))
	copy(w, f.weights)
	return w
}
