// Package analysis reports level and spectral metrics of processed buffers.
//
// It answers the questions one would otherwise settle by listening: how loud
// a clip is, where its energy sits in frequency, and how much an echo
// canceller reduced the signal.
//
//   - RMS and peak level in dBFS
//   - Crest factor (peak-to-RMS ratio)
//   - Dominant frequency from a Hann-windowed FFT
//   - ERLE: echo return loss enhancement between two buffers
//
// # Usage
//
//	rep, err := analysis.Analyze(samples, 44100)
//	fmt.Printf("%.1f dBFS, dominant %.0f Hz\n", rep.RMSdBFS, rep.DominantHz)
package analysis
