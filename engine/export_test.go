package engine

import "errors"

var errMismatch = errors.New("concurrent result differs from sequential result")

// withParams replaces all parameters; used to clone a configuration.
func (e *Engine) withParams(p Params) *Engine {
	e.Configure(p.Full())
	return e
}
