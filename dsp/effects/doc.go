// Package effects provides non-I/O effect kernels over float64 sample
// buffers.
//
// Echo adds a single feedforward echo, y[n] = x[n] + g*x[n-d], with the
// delay given in milliseconds and the gain as a percentage. AddEcho is the
// stateless form used by the engine.
package effects
