package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// ErrEmpty is returned for an empty input signal.
var ErrEmpty = errors.New("spectrum: empty signal")

// minFFTSize keeps very short signals above the smallest plan size.
const minFFTSize = 8

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns |X[k]| for each complex spectrum bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(out, re, im)
	putScratch(buf)
	return out
}

// Hann returns a symmetric Hann window of length n.
func Hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// FFTSize returns the smallest power of two not below n.
func FFTSize(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// Result is a one-sided magnitude spectrum.
type Result struct {
	// Magnitudes holds bins 0..FFTSize/2.
	Magnitudes []float64
	FFTSize    int
	SampleRate float64
}

// BinHz returns the bin spacing in Hz.
func (r Result) BinHz() float64 {
	return r.SampleRate / float64(r.FFTSize)
}

// Peak returns the index of the strongest bin above DC, or 0 if there is none.
func (r Result) Peak() int {
	peak := 0
	best := 0.0
	for k := 1; k < len(r.Magnitudes); k++ {
		if r.Magnitudes[k] > best {
			best = r.Magnitudes[k]
			peak = k
		}
	}
	return peak
}

// PeakFrequency returns the frequency of Peak, refined by parabolic
// interpolation over the neighbouring bins.
func (r Result) PeakFrequency() float64 {
	k := r.Peak()
	if k == 0 {
		return 0
	}
	offset := 0.0
	if k+1 < len(r.Magnitudes) {
		a, b, c := r.Magnitudes[k-1], r.Magnitudes[k], r.Magnitudes[k+1]
		if den := a - 2*b + c; den != 0 {
			offset = 0.5 * (a - c) / den
		}
	}
	return (float64(k) + offset) * r.BinHz()
}

// Analyze returns the Hann-windowed magnitude spectrum of x.
func Analyze(x []float64, sampleRate float64) (Result, error) {
	if len(x) == 0 {
		return Result{}, ErrEmpty
	}
	size := max(FFTSize(len(x)), minFFTSize)
	win := Hann(len(x))

	in := make([]complex128, size)
	for i, v := range x {
		in[i] = complex(v*win[i], 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return Result{}, fmt.Errorf("spectrum: plan %d: %w", size, err)
	}
	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("spectrum: forward: %w", err)
	}

	return Result{
		Magnitudes: Magnitude(out[:size/2+1]),
		FFTSize:    size,
		SampleRate: sampleRate,
	}, nil
}
