package buffer

import "github.com/cwbudde/echolab/dsp/core"

// Buffer wraps a float64 slice with reuse-friendly semantics.
// DSP functions accept raw []float64; use Samples() to bridge.
type Buffer struct {
	samples []float64
}

// New returns a zero-filled Buffer of the given length.
func New(length int) *Buffer {
	if length < 0 {
		length = 0
	}
	return &Buffer{samples: make([]float64, length)}
}

// FromFloat32 returns a Buffer holding a widened copy of src.
func FromFloat32(src []float32) *Buffer {
	b := New(len(src))
	core.ToFloat64(b.samples, src)
	return b
}

// Samples returns the underlying slice.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Len returns the current number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Resize sets the length to n, reusing existing capacity when possible.
// New elements beyond the previous length are zeroed.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	oldLen := len(b.samples)
	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		s := make([]float64, n)
		copy(s, b.samples)
		b.samples = s
	}
	// The backing array may hold stale data from a previous call.
	if n > oldLen {
		core.Zero(b.samples[oldLen:n])
	}
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	core.Zero(b.samples)
}

// LoadFloat32 resizes b to len(src) and widens src into it.
func (b *Buffer) LoadFloat32(src []float32) {
	b.Resize(len(src))
	core.ToFloat64(b.samples, src)
}

// StoreFloat32 returns a newly allocated single-precision copy of b.
func (b *Buffer) StoreFloat32() []float32 {
	out := make([]float32, len(b.samples))
	core.ToFloat32(out, b.samples)
	return out
}
