// Package spectrum computes windowed magnitude spectra of real signals.
//
// Signals are Hann-windowed, zero-padded to a power of two and transformed
// with an algo-fft plan. Only the non-negative frequency bins are returned.
package spectrum
