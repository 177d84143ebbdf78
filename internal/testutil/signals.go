package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Float32 narrows a float64 signal to a single-precision sample buffer.
func Float32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}

// Float64 widens a single-precision sample buffer.
func Float64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

// NoisyEcho builds a short clip of a decaying tone, its echo after delay
// samples at the given gain, and low-level noise. It is the kind of input the
// echo/noise removal pipeline is exercised with.
func NoisyEcho(length, delay int, gain float64, seed int64) []float32 {
	dry := DeterministicSine(220, 44100, 0.6, length)
	for i := range dry {
		dry[i] *= math.Exp(-float64(i) / float64(length))
	}
	noise := DeterministicNoise(seed, 0.02, length)
	out := make([]float32, length)
	for i := range out {
		v := dry[i] + noise[i]
		if i >= delay {
			v += gain * dry[i-delay]
		}
		out[i] = float32(v)
	}
	return out
}
