package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultEchoDelayMs   = 100.0
	defaultEchoIntensity = 50.0
)

// Echo adds one delayed, attenuated copy of a signal to itself.
//
// There is no feedback path and no dry/wet mix: the output is
// x[n] + g*x[n-d]. Delay and intensity are not range-checked, so negative
// or oversized values pass straight through to AddEcho.
type Echo struct {
	sampleRate float64
	delayMs    float64
	intensity  float64
}

// NewEcho creates an echo with a 100 ms delay at 50 % intensity.
func NewEcho(sampleRate float64) (*Echo, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("echo sample rate must be > 0: %f", sampleRate)
	}
	return &Echo{
		sampleRate: sampleRate,
		delayMs:    defaultEchoDelayMs,
		intensity:  defaultEchoIntensity,
	}, nil
}

// SetDelay sets the echo delay in milliseconds.
func (e *Echo) SetDelay(ms float64) { e.delayMs = ms }

// SetIntensity sets the echo amplitude as a percentage of the original.
func (e *Echo) SetIntensity(percent float64) { e.intensity = percent }

// SampleRate returns sample rate in Hz.
func (e *Echo) SampleRate() float64 { return e.sampleRate }

// Delay returns the delay in milliseconds.
func (e *Echo) Delay() float64 { return e.delayMs }

// Intensity returns the echo amplitude in percent.
func (e *Echo) Intensity() float64 { return e.intensity }

// DelaySamples returns the delay rounded down to whole samples.
func (e *Echo) DelaySamples() float64 {
	return DelaySamples(e.delayMs, e.sampleRate)
}

// ProcessTo writes the echoed version of src into dst. Both slices must have
// the same length; dst must not overlap src.
func (e *Echo) ProcessTo(dst, src []float64) {
	AddEcho(dst, src, e.DelaySamples(), e.intensity/100)
}

// DelaySamples converts a delay in milliseconds to floor(ms * sampleRate/1000).
// The result is returned as float64 so that NaN and infinite delays survive
// the conversion.
func DelaySamples(delayMs, sampleRate float64) float64 {
	samplesPerMs := sampleRate / 1000
	return math.Floor(delayMs * samplesPerMs)
}

// AddEcho computes dst[i] = src[i] + intensity*src[i-delay] for i >= delay
// and dst[i] = src[i] before that. No clipping is applied.
//
// A NaN delay or one at least len(src) leaves the signal unchanged. A negative
// delay reads ahead; positions whose source lies past the end of src become NaN.
func AddEcho(dst, src []float64, delay, intensity float64) {
	n := len(src)
	if len(dst) != n {
		panic(fmt.Sprintf("effects: echo length mismatch: dst %d, src %d", len(dst), n))
	}
	copy(dst, src)
	if n == 0 || math.IsNaN(delay) || delay >= float64(n) {
		return
	}
	if delay <= -float64(n) {
		fillNaN(dst)
		return
	}

	d := int(delay)
	if d >= 0 {
		tail := make([]float64, n-d)
		vecmath.ScaleBlock(tail, src[:n-d], intensity)
		vecmath.AddBlockInPlace(dst[d:], tail)
		return
	}

	ahead := -d
	head := make([]float64, n-ahead)
	vecmath.ScaleBlock(head, src[ahead:], intensity)
	vecmath.AddBlockInPlace(dst[:n-ahead], head)
	fillNaN(dst[n-ahead:])
}

func fillNaN(buf []float64) {
	nan := math.NaN()
	for i := range buf {
		buf[i] = nan
	}
}
