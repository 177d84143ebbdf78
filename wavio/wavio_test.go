package wavio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/echolab/internal/testutil"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{2, 32767},
		{-7, -32768},
		{0.5, 16383},
		{-0.5, -16384},
		{1e-6, 0},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 32767},
		{float32(math.Inf(-1)), -32768},
	}
	for _, tc := range tests {
		if got := Quantize(tc.in); got != tc.want {
			t.Errorf("Quantize(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestEncodeHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	data, err := EncodeBytes(samples, 22050)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 44+2*len(samples) {
		t.Fatalf("len = %d, want %d", len(data), 44+2*len(samples))
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		ok   bool
	}{
		{"RIFF", string(data[0:4]) == "RIFF"},
		{"riff size", le.Uint32(data[4:]) == uint32(36+2*len(samples))},
		{"WAVE", string(data[8:12]) == "WAVE"},
		{"fmt", string(data[12:16]) == "fmt "},
		{"format", le.Uint16(data[20:]) == 1},
		{"channels", le.Uint16(data[22:]) == 1},
		{"rate", le.Uint32(data[24:]) == 22050},
		{"byte rate", le.Uint32(data[28:]) == 44100},
		{"block align", le.Uint16(data[32:]) == 2},
		{"bits", le.Uint16(data[34:]) == 16},
		{"data", string(data[36:40]) == "data"},
		{"data size", le.Uint32(data[40:]) == uint32(2*len(samples))},
	}
	for _, c := range checks {
		if !c.ok {
			t.Errorf("header field %s wrong: % x", c.name, data[:44])
		}
	}

	for i, s := range samples {
		got := int16(le.Uint16(data[44+2*i:]))
		if got != Quantize(s) {
			t.Errorf("sample %d = %d, want %d", i, got, Quantize(s))
		}
	}
}

func TestEncodeRejectsBadRate(t *testing.T) {
	if _, err := EncodeBytes([]float32{0}, 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestRoundTrip(t *testing.T) {
	in := testutil.Float32(testutil.DeterministicSine(440, 44100, 0.8, 2048))
	data, err := EncodeBytes(in, 44100)
	if err != nil {
		t.Fatal(err)
	}
	clip, err := DecodeBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if clip.SampleRate != 44100 || clip.Channels != 1 || clip.BitDepth != 16 {
		t.Fatalf("clip = %d Hz, %d ch, %d bit", clip.SampleRate, clip.Channels, clip.BitDepth)
	}
	testutil.RequireSamplesNearlyEqual(t, clip.Samples, in, 1.0/16384)
	if d := clip.Duration(); math.Abs(d-2048.0/44100) > 1e-12 {
		t.Fatalf("Duration = %v", d)
	}
}

func TestDecodeKeepsFirstChannel(t *testing.T) {
	var ws writeSeeker
	enc := wav.NewEncoder(&ws, 8000, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           []int{16384, -100, -16384, 200, 0, 300},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	clip, err := DecodeBytes(ws.buf)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0.5, -0.5, 0}
	testutil.RequireSamplesIdentical(t, clip.Samples, want)
	if clip.Channels != 2 || clip.SampleRate != 8000 {
		t.Fatalf("clip = %+v", clip)
	}
}

func TestDecodeInvalid(t *testing.T) {
	inputs := map[string][]byte{
		"empty":   nil,
		"garbage": []byte("this is not a wav file at all, not even close"),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeBytes(in); !errors.Is(err, ErrInvalidWAV) {
				t.Fatalf("err = %v, want ErrInvalidWAV", err)
			}
		})
	}
}

func TestWriteSeekerPatchesInPlace(t *testing.T) {
	var ws writeSeeker
	_, _ = ws.Write([]byte("abcdef"))
	if _, err := ws.Seek(2, 0); err != nil {
		t.Fatal(err)
	}
	_, _ = ws.Write([]byte("XY"))
	if _, err := ws.Seek(0, 2); err != nil {
		t.Fatal(err)
	}
	_, _ = ws.Write([]byte("!"))
	if !bytes.Equal(ws.buf, []byte("abXYef!")) {
		t.Fatalf("buf = %q", ws.buf)
	}
	if _, err := ws.Seek(-1, 0); err == nil {
		t.Fatal("expected error for negative position")
	}
}
