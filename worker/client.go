package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/cwbudde/echolab/worker/wire"
)

// conn moves encoded payloads between a client and a remote host.
type conn interface {
	send(ctx context.Context, payload []byte) error
	recv(ctx context.Context) ([]byte, error)
	close() error
}

// client multiplexes concurrent RoundTrips over one conn. Requests are
// renumbered on the way out so callers may reuse IDs freely; the caller's ID
// is restored on the response.
type client struct {
	c conn

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan Response
	closing bool
	err     error

	done   chan struct{}
	cancel context.CancelFunc
}

func newClient(c conn) *client {
	ctx, cancel := context.WithCancel(context.Background())
	cl := &client{
		c:       c,
		pending: make(map[uint64]chan Response),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go cl.readLoop(ctx)
	return cl
}

func (cl *client) readLoop(ctx context.Context) {
	var err error
	for {
		var payload []byte
		payload, err = cl.c.recv(ctx)
		if err != nil {
			break
		}
		var resp Response
		resp, err = wire.DecodeResponse(payload)
		if err != nil {
			break
		}
		cl.mu.Lock()
		ch, ok := cl.pending[resp.ID]
		delete(cl.pending, resp.ID)
		cl.mu.Unlock()
		if ok {
			ch <- resp
		}
	}

	cl.mu.Lock()
	if cl.closing {
		cl.err = ErrClosed
	} else {
		cl.err = fmt.Errorf("worker: connection lost: %w", err)
	}
	cl.pending = nil
	cl.mu.Unlock()
	close(cl.done)
}

// RoundTrip sends req and waits for the matching response.
func (cl *client) RoundTrip(ctx context.Context, req Request) (Response, error) {
	reply := make(chan Response, 1)

	cl.mu.Lock()
	if cl.pending == nil || cl.closing {
		err := cl.err
		cl.mu.Unlock()
		if err == nil {
			err = ErrClosed
		}
		return Response{}, err
	}
	cl.nextID++
	id := cl.nextID
	cl.pending[id] = reply
	cl.mu.Unlock()

	callerID := req.ID
	req.ID = id
	if err := cl.c.send(ctx, wire.AppendRequest(nil, req)); err != nil {
		cl.forget(id)
		return Response{}, fmt.Errorf("worker: send: %w", err)
	}

	select {
	case resp := <-reply:
		resp.ID = callerID
		return resp, nil
	case <-ctx.Done():
		cl.forget(id)
		return Response{}, ctx.Err()
	case <-cl.done:
		return Response{}, cl.closedErr()
	}
}

func (cl *client) forget(id uint64) {
	cl.mu.Lock()
	if cl.pending != nil {
		delete(cl.pending, id)
	}
	cl.mu.Unlock()
}

func (cl *client) closedErr() error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.err
}

// Close shuts the connection down and fails all waiting calls with ErrClosed.
func (cl *client) Close() error {
	cl.mu.Lock()
	if cl.closing {
		cl.mu.Unlock()
		<-cl.done
		return nil
	}
	cl.closing = true
	cl.mu.Unlock()

	err := cl.c.close()
	cl.cancel()
	<-cl.done
	return err
}
