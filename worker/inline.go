package worker

import (
	"context"
	"sync"

	"github.com/cwbudde/echolab/dsp/core"
	"github.com/cwbudde/echolab/engine"
)

// Inline runs requests on the calling goroutine. It still copies buffers in
// both directions so callers see the same isolation as with other transports.
type Inline struct {
	mu     sync.Mutex
	h      *handler
	closed bool
}

var _ Transport = (*Inline)(nil)

// NewInline returns an in-process transport hosting eng. A nil eng is
// replaced by a new engine built from opts.
func NewInline(eng *engine.Engine, opts ...Option) *Inline {
	o := applyOptions(opts)
	if eng == nil {
		eng = o.newEngine()
	}
	return &Inline{h: newHandler(eng, o)}
}

// RoundTrip runs req. Requests are serialized like on every other transport.
func (t *Inline) RoundTrip(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return Response{}, ErrClosed
	}
	req.Samples = core.CloneFloat32(req.Samples)
	return t.h.handle(ctx, req), nil
}

// Close releases the engine.
func (t *Inline) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.h.close()
	}
	return nil
}
