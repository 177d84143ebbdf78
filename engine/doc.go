// Package engine is the echo/noise processing core.
//
// An [Engine] holds five parameters and applies one of three whole-buffer
// transforms to a mono single-precision sample buffer:
//
//   - [Engine.SynthesizeEcho] adds one delayed, attenuated copy of the input.
//   - [Engine.CancelEcho] runs an NLMS adaptive filter over the input.
//   - [Engine.DenoiseAndCancelEcho] runs a scalar Kalman denoiser, then NLMS.
//
// Parameters persist across calls and are changed by partial updates
// ([Engine.Configure]). Filter state never does: every transform builds its
// filters from zero and discards them on return, so calling the same
// transform twice with the same input and parameters yields the same output.
//
// The engine performs no I/O and no parameter validation. Out-of-range values
// show up as diverging or NaN output rather than as errors; the only failure
// a transform reports is a filter length that cannot be allocated.
package engine
