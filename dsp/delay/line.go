// Package delay provides the tap-delay register used by adaptive filters.
package delay

import "fmt"

// Line is a shift register holding the most recent samples, newest first.
//
// Storage is mirrored (each sample is written twice, N slots apart) so that
// the current window is always one contiguous slice. Inserting a sample is
// O(1) and never moves the other taps.
type Line struct {
	buffer []float64
	size   int
	pos    int
}

// New returns a delay line holding size taps. A size of 0 yields a line whose
// window is always empty.
func New(size int) (*Line, error) {
	if size < 0 {
		return nil, fmt.Errorf("delay size must be >= 0: %d", size)
	}
	return &Line{buffer: make([]float64, 2*size), size: size}, nil
}

// Len returns the number of taps.
func (d *Line) Len() int {
	return d.size
}

// Push shifts every tap one position older, discarding the oldest, and
// stores sample at tap 0.
func (d *Line) Push(sample float64) {
	if d.size == 0 {
		return
	}
	d.pos--
	if d.pos < 0 {
		d.pos = d.size - 1
	}
	d.buffer[d.pos] = sample
	d.buffer[d.pos+d.size] = sample
}

// Taps returns the current window, most recent sample first. The slice
// aliases internal storage and is valid until the next Push or Reset.
func (d *Line) Taps() []float64 {
	return d.buffer[d.pos : d.pos+d.size]
}

// Read returns the sample pushed delay steps ago (0 = newest).
// Out-of-range delays read as 0.
func (d *Line) Read(delay int) float64 {
	if delay < 0 || delay >= d.size {
		return 0
	}
	return d.buffer[d.pos+delay]
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.pos = 0
}
