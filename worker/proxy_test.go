package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeTransport answers every request with resp, or with err.
type fakeTransport struct {
	resp   func(Request) Response
	err    error
	closed bool
}

func (f *fakeTransport) RoundTrip(_ context.Context, req Request) (Response, error) {
	if f.err != nil {
		return Response{}, f.err
	}
	return f.resp(req), nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func TestProxyRejectsMismatchedID(t *testing.T) {
	px := NewProxy(&fakeTransport{resp: func(req Request) Response {
		return Response{ID: req.ID + 1, Samples: req.Samples}
	}})
	if _, err := px.Denoise(context.Background(), []float32{1}); err == nil || !strings.Contains(err.Error(), "response id") {
		t.Fatalf("err = %v", err)
	}
}

func TestProxyRejectsWrongLength(t *testing.T) {
	px := NewProxy(&fakeTransport{resp: func(req Request) Response {
		return Response{ID: req.ID, Samples: req.Samples[:1]}
	}})
	got, err := px.CancelEcho(context.Background(), []float32{1, 2, 3})
	if err == nil || got != nil {
		t.Fatalf("got %v, err = %v", got, err)
	}
}

func TestProxyPassesTransportErrors(t *testing.T) {
	px := NewProxy(&fakeTransport{err: ErrClosed})
	if _, err := px.SynthesizeEcho(context.Background(), []float32{1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestProxyAssignsIncreasingIDs(t *testing.T) {
	var seen []uint64
	px := NewProxy(&fakeTransport{resp: func(req Request) Response {
		seen = append(seen, req.ID)
		return Response{ID: req.ID, Samples: req.Samples}
	}})
	for range 3 {
		if _, err := px.SynthesizeEchoAt(context.Background(), []float32{0}, 8000); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 3 || seen[0] >= seen[1] || seen[1] >= seen[2] {
		t.Fatalf("ids = %v", seen)
	}
}

func TestProxyCloseClosesTransport(t *testing.T) {
	f := &fakeTransport{}
	if err := NewProxy(f).Close(); err != nil || !f.closed {
		t.Fatalf("closed = %v, err = %v", f.closed, err)
	}
}

func TestRemoteErrorMessage(t *testing.T) {
	err := &RemoteError{Op: OpCancelEcho, Message: "boom"}
	if got := err.Error(); got != "worker: cancel_echo: boom" {
		t.Fatalf("Error() = %q", got)
	}
}
