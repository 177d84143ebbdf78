package engine

import (
	"fmt"
	"sync"

	"github.com/cwbudde/echolab/dsp/buffer"
	"github.com/cwbudde/echolab/dsp/core"
	"github.com/cwbudde/echolab/dsp/effects"
	"github.com/cwbudde/echolab/dsp/filter/adaptive"
	"github.com/cwbudde/echolab/dsp/filter/kalman"
)

// Engine applies echo synthesis and echo/noise removal to sample buffers.
//
// An Engine may be reused for any number of calls and is safe for concurrent
// use. Only its parameters persist between calls.
type Engine struct {
	mu         sync.RWMutex
	params     Params
	sampleRate float64

	scratch *buffer.Pool
}

// New creates an engine with default parameters. The sample rate used to
// convert the echo delay to samples defaults to 44.1 kHz and can be changed
// with core.WithSampleRate.
func New(opts ...core.ProcessorOption) *Engine {
	cfg := core.ApplyProcessorOptions(opts...)
	return &Engine{
		params:     DefaultParams(),
		sampleRate: cfg.SampleRate,
		scratch:    buffer.NewPool(),
	}
}

// Configure merges u into the current parameters. Absent fields keep their
// previous values. Values are not validated.
func (e *Engine) Configure(u Update) {
	e.mu.Lock()
	u.Apply(&e.params)
	e.mu.Unlock()
}

// Params returns a snapshot of the current parameters.
func (e *Engine) Params() Params {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

// SampleRate returns the rate SynthesizeEcho assumes for its input.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// SynthesizeEcho returns in plus a copy delayed by EchoDelay milliseconds and
// scaled by EchoIntensity percent, assuming the engine's sample rate.
func (e *Engine) SynthesizeEcho(in []float32) []float32 {
	return e.SynthesizeEchoAt(in, e.sampleRate)
}

// SynthesizeEchoAt is SynthesizeEcho for a buffer recorded at sampleRate.
// A rate that is not positive and finite falls back to the engine's sample
// rate.
func (e *Engine) SynthesizeEchoAt(in []float32, sampleRate float64) []float32 {
	echo, err := effects.NewEcho(sampleRate)
	if err != nil {
		echo = e.echo()
	}
	p := e.Params()
	echo.SetDelay(p.EchoDelay)
	echo.SetIntensity(p.EchoIntensity)

	src := e.scratch.Load(in)
	defer e.scratch.Put(src)
	dst := e.scratch.Get(len(in))
	defer e.scratch.Put(dst)

	echo.ProcessTo(dst.Samples(), src.Samples())
	return dst.StoreFloat32()
}

func (e *Engine) echo() *effects.Echo {
	echo, err := effects.NewEcho(e.sampleRate)
	if err != nil {
		panic(fmt.Sprintf("engine: invalid sample rate %v", e.sampleRate))
	}
	return echo
}

// CancelEcho runs a freshly zeroed NLMS filter over in and returns its
// prediction of each sample.
func (e *Engine) CancelEcho(in []float32) ([]float32, error) {
	p := e.Params()

	work := e.scratch.Load(in)
	defer e.scratch.Put(work)

	if err := cancel(work.Samples(), p); err != nil {
		return nil, fmt.Errorf("engine: cancel echo: %w", err)
	}
	return work.StoreFloat32(), nil
}

// Denoise runs a freshly initialized scalar Kalman filter over in.
func (e *Engine) Denoise(in []float32) []float32 {
	p := e.Params()

	work := e.scratch.Load(in)
	defer e.scratch.Put(work)

	denoise(work.Samples(), p)
	return work.StoreFloat32()
}

// DenoiseAndCancelEcho runs the Kalman denoiser over in and then feeds its
// output through a fresh NLMS filter. The stage order is fixed.
func (e *Engine) DenoiseAndCancelEcho(in []float32) ([]float32, error) {
	p := e.Params()

	work := e.scratch.Load(in)
	defer e.scratch.Put(work)

	denoise(work.Samples(), p)
	// The NLMS stage sees the denoised signal at single precision, exactly
	// as if Denoise and CancelEcho had been called one after the other.
	roundToFloat32(work.Samples())
	if err := cancel(work.Samples(), p); err != nil {
		return nil, fmt.Errorf("engine: denoise and cancel echo: %w", err)
	}
	return work.StoreFloat32(), nil
}

func cancel(buf []float64, p Params) error {
	f, err := adaptive.New(p.FilterLength, p.NLMSStepSize)
	if err != nil {
		return err
	}
	f.ProcessBlock(buf)
	return nil
}

func denoise(buf []float64, p Params) {
	kalman.New(kalman.DefaultProcessNoise, p.KalmanGain).ProcessBlock(buf)
}

func roundToFloat32(buf []float64) {
	for i, v := range buf {
		buf[i] = float64(float32(v))
	}
}
