package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/echolab/internal/testutil"
)

func TestMagnitude(t *testing.T) {
	bins := []complex128{3 + 4i, -1 - 1i, 0}

	mag := Magnitude(bins)
	if len(mag) != len(bins) {
		t.Fatalf("Magnitude length mismatch: got=%d want=%d", len(mag), len(bins))
	}
	if math.Abs(mag[0]-5) > 1e-12 {
		t.Fatalf("Magnitude[0]=%f want=5", mag[0])
	}
	if math.Abs(mag[1]-math.Sqrt2) > 1e-12 {
		t.Fatalf("Magnitude[1]=%f want=sqrt(2)", mag[1])
	}
	if Magnitude(nil) != nil {
		t.Fatal("Magnitude(nil) should be nil")
	}
}

func TestHann(t *testing.T) {
	w := Hann(5)
	want := []float64{0, 0.5, 1, 0.5, 0}
	testutil.RequireSliceNearlyEqual(t, w, want, 1e-12)
	if got := Hann(1); got[0] != 1 {
		t.Fatalf("Hann(1) = %v", got)
	}
}

func TestFFTSize(t *testing.T) {
	tests := map[int]int{1: 1, 2: 2, 3: 4, 1000: 1024, 1024: 1024}
	for in, want := range tests {
		if got := FFTSize(in); got != want {
			t.Fatalf("FFTSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestAnalyzeFindsSineFrequency(t *testing.T) {
	const rate = 44100.0
	for _, freq := range []float64{440, 1000, 5512.5} {
		x := testutil.DeterministicSine(freq, rate, 0.5, 8192)
		res, err := Analyze(x, rate)
		if err != nil {
			t.Fatal(err)
		}
		if res.FFTSize != 8192 || len(res.Magnitudes) != 4097 {
			t.Fatalf("size = %d, bins = %d", res.FFTSize, len(res.Magnitudes))
		}
		if got := res.PeakFrequency(); math.Abs(got-freq) > res.BinHz()/2 {
			t.Fatalf("PeakFrequency = %v, want %v", got, freq)
		}
	}
}

func TestAnalyzeSilence(t *testing.T) {
	res, err := Analyze(make([]float64, 100), 8000)
	if err != nil {
		t.Fatal(err)
	}
	if res.Peak() != 0 || res.PeakFrequency() != 0 {
		t.Fatalf("silence peak = %d", res.Peak())
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if _, err := Analyze(nil, 8000); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}
