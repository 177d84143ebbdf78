package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/echolab/dsp/core"
	"github.com/cwbudde/echolab/dsp/spectrum"
)

var (
	// ErrEmpty is returned for empty input.
	ErrEmpty = errors.New("analysis: empty input")

	// ErrLengthMismatch is returned when ERLE inputs differ in length.
	ErrLengthMismatch = errors.New("analysis: length mismatch")
)

// Report summarizes one buffer.
type Report struct {
	Samples    int
	SampleRate float64
	Duration   float64

	RMS     float64
	RMSdBFS float64

	Peak     float64
	PeakdBFS float64

	// CrestFactordB is PeakdBFS - RMSdBFS. It is NaN for silence.
	CrestFactordB float64

	// DominantHz is the strongest frequency above DC, 0 for silence.
	DominantHz float64

	// NonFinite counts NaN and infinite samples. They are excluded from all
	// other metrics.
	NonFinite int
}

func (r Report) String() string {
	return fmt.Sprintf("%d samples @ %.0f Hz (%.3f s): rms %.2f dBFS, peak %.2f dBFS, crest %.2f dB, dominant %.1f Hz",
		r.Samples, r.SampleRate, r.Duration, r.RMSdBFS, r.PeakdBFS, r.CrestFactordB, r.DominantHz)
}

// Analyze measures samples recorded at sampleRate.
func Analyze(samples []float32, sampleRate float64) (Report, error) {
	if len(samples) == 0 {
		return Report{}, ErrEmpty
	}
	if !(sampleRate > 0) {
		return Report{}, fmt.Errorf("analysis: invalid sample rate %v", sampleRate)
	}

	x := finite(samples)
	rep := Report{
		Samples:    len(samples),
		SampleRate: sampleRate,
		Duration:   float64(len(samples)) / sampleRate,
		NonFinite:  len(samples) - len(x),
	}
	if len(x) == 0 {
		rep.RMSdBFS = math.Inf(-1)
		rep.PeakdBFS = math.Inf(-1)
		rep.CrestFactordB = math.NaN()
		return rep, nil
	}

	rep.RMS = math.Sqrt(floats.Dot(x, x) / float64(len(x)))
	rep.Peak = math.Max(floats.Max(x), -floats.Min(x))
	rep.RMSdBFS = core.LinearToDB(rep.RMS)
	rep.PeakdBFS = core.LinearToDB(rep.Peak)
	if rep.Peak > 0 {
		rep.CrestFactordB = rep.PeakdBFS - rep.RMSdBFS
	} else {
		rep.CrestFactordB = math.NaN()
	}

	spec, err := spectrum.Analyze(x, sampleRate)
	if err != nil {
		return Report{}, fmt.Errorf("analysis: %w", err)
	}
	rep.DominantHz = spec.PeakFrequency()
	return rep, nil
}

// ERLE returns the energy ratio of before to after in dB. A positive value
// means after carries less energy. Non-finite samples count as silence.
func ERLE(before, after []float32) (float64, error) {
	if len(before) != len(after) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(before), len(after))
	}
	if len(before) == 0 {
		return 0, ErrEmpty
	}
	eb := energy(before)
	ea := energy(after)
	switch {
	case eb == 0 && ea == 0:
		return 0, nil
	case ea == 0:
		return math.Inf(1), nil
	}
	return core.LinearPowerToDB(eb / ea), nil
}

func finite(samples []float32) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v := float64(s); core.IsFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func energy(samples []float32) float64 {
	x := finite(samples)
	return floats.Dot(x, x)
}
