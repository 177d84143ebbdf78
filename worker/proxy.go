package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/echolab/dsp/core"
	"github.com/cwbudde/echolab/engine"
)

// RemoteError is an operation failure reported by the engine host.
type RemoteError struct {
	Op      Op
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("worker: %s: %s", e.Op, e.Message)
}

// Proxy exposes the engine operations of a Transport as typed methods.
// It is safe for concurrent use when the underlying Transport is.
type Proxy struct {
	t      Transport
	nextID atomic.Uint64
}

// NewProxy wraps t. Closing the Proxy closes t.
func NewProxy(t Transport) *Proxy {
	return &Proxy{t: t}
}

// Do sends req with a fresh ID and returns the output samples. Host-side
// failures are returned as *RemoteError. On any error the result is nil.
func (p *Proxy) Do(ctx context.Context, req Request) ([]float32, error) {
	req.ID = p.nextID.Add(1)
	req.Samples = core.CloneFloat32(req.Samples)

	resp, err := p.t.RoundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("worker: %s: response id %d, want %d", req.Op, resp.ID, req.ID)
	}
	if resp.Err != "" {
		return nil, &RemoteError{Op: req.Op, Message: resp.Err}
	}
	if !req.Op.IsTransform() {
		return nil, nil
	}
	if len(resp.Samples) != len(req.Samples) {
		return nil, fmt.Errorf("worker: %s: got %d samples, want %d", req.Op, len(resp.Samples), len(req.Samples))
	}
	return resp.Samples, nil
}

// Configure merges u into the remote engine's parameters.
func (p *Proxy) Configure(ctx context.Context, u engine.Update) error {
	_, err := p.Do(ctx, Request{Op: OpConfigure, Params: &u})
	return err
}

// SynthesizeEcho adds an echo to in at the host engine's sample rate.
func (p *Proxy) SynthesizeEcho(ctx context.Context, in []float32) ([]float32, error) {
	return p.Do(ctx, Request{Op: OpSynthesizeEcho, Samples: in})
}

// SynthesizeEchoAt adds an echo to in recorded at sampleRate.
func (p *Proxy) SynthesizeEchoAt(ctx context.Context, in []float32, sampleRate float64) ([]float32, error) {
	return p.Do(ctx, Request{Op: OpSynthesizeEcho, Samples: in, SampleRate: sampleRate})
}

// CancelEcho runs the NLMS canceller over in.
func (p *Proxy) CancelEcho(ctx context.Context, in []float32) ([]float32, error) {
	return p.Do(ctx, Request{Op: OpCancelEcho, Samples: in})
}

// Denoise runs the Kalman denoiser over in.
func (p *Proxy) Denoise(ctx context.Context, in []float32) ([]float32, error) {
	return p.Do(ctx, Request{Op: OpDenoise, Samples: in})
}

// DenoiseAndCancelEcho runs the Kalman denoiser and then the NLMS canceller.
func (p *Proxy) DenoiseAndCancelEcho(ctx context.Context, in []float32) ([]float32, error) {
	return p.Do(ctx, Request{Op: OpDenoiseAndCancelEcho, Samples: in})
}

// Close releases the transport and its engine.
func (p *Proxy) Close() error {
	return p.t.Close()
}
