package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/worker/wire"
)

// Stream is a Transport speaking the wire protocol over a byte stream such as
// a pipe pair or a network connection.
type Stream struct {
	*client
}

var _ Transport = (*Stream)(nil)

// NewStream starts a client over rwc. Closing the Stream closes rwc.
func NewStream(rwc io.ReadWriteCloser) *Stream {
	return &Stream{client: newClient(&streamConn{rwc: rwc})}
}

type streamConn struct {
	rwc io.ReadWriteCloser
	wmu sync.Mutex
}

func (s *streamConn) send(_ context.Context, payload []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return wire.WriteFrame(s.rwc, payload)
}

func (s *streamConn) recv(context.Context) ([]byte, error) {
	return wire.ReadFrame(s.rwc)
}

func (s *streamConn) close() error {
	return s.rwc.Close()
}

// ServeStream answers requests read from rwc with a handler for eng until the
// peer closes the stream or ctx is cancelled. Requests are handled in arrival
// order. A clean end of stream returns nil.
func ServeStream(ctx context.Context, rwc io.ReadWriteCloser, eng *engine.Engine, opts ...Option) error {
	o := applyOptions(opts)
	if eng == nil {
		eng = o.newEngine()
	}
	h := newHandler(eng, o)
	defer h.close()

	stop := context.AfterFunc(ctx, func() { _ = rwc.Close() })
	defer stop()

	err := serve(ctx, h,
		func() ([]byte, error) { return wire.ReadFrame(rwc) },
		func(p []byte) error { return wire.WriteFrame(rwc, p) },
	)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// serve is the host side of the protocol shared by all remote transports.
func serve(ctx context.Context, h *handler, recv func() ([]byte, error), send func([]byte) error) error {
	for {
		payload, err := recv()
		if err != nil {
			return err
		}
		var resp Response
		req, err := wire.DecodeRequest(payload)
		if err != nil {
			id, ok := wire.PeekID(payload)
			if !ok {
				return fmt.Errorf("worker: %w", err)
			}
			resp = Response{ID: id, Err: err.Error()}
		} else {
			resp = h.handle(ctx, req)
		}
		if err := send(wire.AppendResponse(nil, resp)); err != nil {
			return fmt.Errorf("worker: send response: %w", err)
		}
	}
}

// Spawn starts name as a subprocess serving the wire protocol on its standard
// streams and returns a Stream connected to it. The process is expected to
// run ServeStream, as `echolab worker` does. Closing the Stream closes the
// child's stdin and waits for it to exit.
func Spawn(ctx context.Context, name string, args ...string) (*Stream, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: spawn %s: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: spawn %s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("worker: spawn %s: %w", name, err)
	}
	return NewStream(&processConn{cmd: cmd, stdin: stdin, stdout: stdout}), nil
}

// processConn joins a child's stdout and stdin into one stream.
type processConn struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p *processConn) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *processConn) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p *processConn) Close() error {
	err := p.stdin.Close()
	if werr := p.cmd.Wait(); werr != nil && err == nil {
		var exitErr *exec.ExitError
		if !errors.As(werr, &exitErr) {
			err = werr
		}
	}
	return err
}

// JoinStreams combines a reader and a writer into one stream, for example a
// worker process serving on its standard input and output.
func JoinStreams(r io.ReadCloser, w io.WriteCloser) io.ReadWriteCloser {
	return &joinedStream{r: r, w: w}
}

type joinedStream struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (j *joinedStream) Read(b []byte) (int, error)  { return j.r.Read(b) }
func (j *joinedStream) Write(b []byte) (int, error) { return j.w.Write(b) }

func (j *joinedStream) Close() error {
	return errors.Join(j.w.Close(), j.r.Close())
}
