// Package worker runs engine operations behind a message-passing boundary.
//
// A caller never shares memory with an engine: requests carry copies of the
// input samples and responses carry newly allocated outputs. Every
// [Transport] hosts exactly one [engine.Engine], whether it lives in the same
// goroutine ([Inline]), a dedicated goroutine ([Host]), another process
// ([Stream] via [Spawn]) or a remote server ([WebSocket]).
package worker

import (
	"context"
	"errors"

	"github.com/cwbudde/echolab/worker/wire"
)

type (
	// Request asks a host to run one operation.
	Request = wire.Request

	// Response carries the result of a Request.
	Response = wire.Response

	// Op identifies an operation.
	Op = wire.Op
)

// Operations.
const (
	OpConfigure            = wire.OpConfigure
	OpSynthesizeEcho       = wire.OpSynthesizeEcho
	OpCancelEcho           = wire.OpCancelEcho
	OpDenoise              = wire.OpDenoise
	OpDenoiseAndCancelEcho = wire.OpDenoiseAndCancelEcho
)

// ErrClosed is returned by a Transport after Close.
var ErrClosed = errors.New("worker: closed")

// Transport delivers a Request to the engine it hosts and returns the
// matching Response. A non-nil error means the request may not have run;
// operation failures are reported in Response.Err instead.
type Transport interface {
	RoundTrip(ctx context.Context, req Request) (Response, error)
	Close() error
}

// ParseOp returns the operation with the given name.
func ParseOp(name string) (Op, error) {
	return wire.ParseOp(name)
}
