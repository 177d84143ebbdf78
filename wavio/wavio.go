// Package wavio converts between WAV files and the float sample buffers the
// engine works on.
//
// Decoding keeps only the first channel and normalizes integer PCM to
// [-1, 1). Encoding always produces mono 16-bit linear PCM with a 44-byte
// header.
package wavio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/echolab/dsp/core"
)

// ErrInvalidWAV is returned when input is not a WAV file this package can
// decode.
var ErrInvalidWAV = errors.New("wavio: invalid WAV data")

// WAV format tags accepted by Decode.
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Clip is a decoded mono buffer.
type Clip struct {
	Samples    []float32
	SampleRate int

	// Channels and BitDepth describe the source file.
	Channels int
	BitDepth int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Decode reads a PCM WAV file and returns its first channel.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: unsupported format tag %d", ErrInvalidWAV, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidWAV)
	}

	depth := int(buf.SourceBitDepth)
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth < 8 || depth > 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, depth)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	clip := &Clip{
		Samples:    make([]float32, frames),
		SampleRate: buf.Format.SampleRate,
		Channels:   channels,
		BitDepth:   depth,
	}

	scale := 1 / float64(int64(1)<<(depth-1))
	for i := range clip.Samples {
		v := buf.Data[i*channels]
		if depth == 8 {
			// 8-bit PCM is unsigned.
			v -= 128
		}
		clip.Samples[i] = float32(float64(v) * scale)
	}
	return clip, nil
}

// DecodeBytes decodes an in-memory WAV file.
func DecodeBytes(b []byte) (*Clip, error) {
	return Decode(bytes.NewReader(b))
}

// Encode writes samples as a mono 16-bit PCM WAV file.
func Encode(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("wavio: invalid sample rate %d", sampleRate)
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(Quantize(s))
	}

	enc := wav.NewEncoder(w, sampleRate, 16, 1, formatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavio: write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavio: finish file: %w", err)
	}
	return nil
}

// EncodeBytes returns samples encoded as a mono 16-bit PCM WAV file.
func EncodeBytes(samples []float32, sampleRate int) ([]byte, error) {
	var ws writeSeeker
	if err := Encode(&ws, samples, sampleRate); err != nil {
		return nil, err
	}
	return ws.buf, nil
}

// Quantize converts one sample to 16-bit PCM. The value is clamped to
// [-1, 1], negative values are scaled by 32768 and the rest by 32767, and
// the fraction is truncated toward zero. NaN maps to 0.
func Quantize(x float32) int16 {
	if math.IsNaN(float64(x)) {
		return 0
	}
	s := core.Clamp(float64(x), -1, 1)
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}
