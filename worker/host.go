package worker

import (
	"context"
	"sync"

	"github.com/cwbudde/echolab/dsp/core"
	"github.com/cwbudde/echolab/engine"
)

// Host owns an engine on a dedicated goroutine and feeds it requests through
// a channel, one at a time.
//
// A started transform always runs to completion. Cancelling the context of a
// RoundTrip only stops the caller from waiting for it.
type Host struct {
	h     *handler
	calls chan hostCall
	done  chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

type hostCall struct {
	ctx   context.Context
	req   Request
	reply chan Response
}

var _ Transport = (*Host)(nil)

// NewHost starts a goroutine hosting eng. A nil eng is replaced by a new
// engine built from opts.
func NewHost(eng *engine.Engine, opts ...Option) *Host {
	o := applyOptions(opts)
	if eng == nil {
		eng = o.newEngine()
	}
	h := &Host{
		h:     newHandler(eng, o),
		calls: make(chan hostCall),
		done:  make(chan struct{}),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

func (h *Host) loop() {
	defer h.wg.Done()
	for {
		select {
		case c := <-h.calls:
			c.reply <- h.h.handle(c.ctx, c.req)
		case <-h.done:
			return
		}
	}
}

// RoundTrip hands req to the host goroutine and waits for its response.
func (h *Host) RoundTrip(ctx context.Context, req Request) (Response, error) {
	select {
	case <-h.done:
		return Response{}, ErrClosed
	default:
	}

	req.Samples = core.CloneFloat32(req.Samples)
	c := hostCall{
		ctx:   context.WithoutCancel(ctx),
		req:   req,
		reply: make(chan Response, 1),
	}
	select {
	case h.calls <- c:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-h.done:
		return Response{}, ErrClosed
	}

	select {
	case resp := <-c.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-h.done:
		return Response{}, ErrClosed
	}
}

// Close stops the host goroutine after any running transform finishes.
// Callers still waiting receive ErrClosed.
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
		h.h.close()
	})
	return nil
}
