// Package wire implements the binary framing used between a worker client
// and an engine host running in another process or behind a WebSocket.
//
// Every message is a frame: a little-endian uint32 payload length followed by
// the payload. A payload starts with a kind byte and a uint64 request ID.
//
// Request payload:
//
//	u8 kind=1 | u64 id | u8 op | f64 sampleRate | u8 mask | 5 x f64 params |
//	u32 n | n x f32 samples
//
// Response payload:
//
//	u8 kind=2 | u64 id | u32 n | n x f32 samples | u32 len | error text
//
// Sample values are transferred as raw IEEE-754 bit patterns, so a round trip
// never alters a sample, NaN payloads and negative zero included.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/echolab/engine"
)

// MaxFrameSize bounds a single payload. It allows a little over 16M samples.
const MaxFrameSize = 64 << 20

// Message kinds.
const (
	KindRequest  byte = 1
	KindResponse byte = 2
)

// Parameter presence bits in a request's mask byte.
const (
	maskKalmanGain = 1 << iota
	maskNLMSStepSize
	maskFilterLength
	maskEchoDelay
	maskEchoIntensity
)

var (
	// ErrFrameTooLarge is returned when a frame exceeds the size limit.
	ErrFrameTooLarge = errors.New("wire: frame too large")

	// ErrMalformed is returned for payloads that cannot be decoded.
	ErrMalformed = errors.New("wire: malformed payload")
)

// Request asks an engine host to run one operation.
type Request struct {
	ID uint64
	Op Op

	// Samples is the input buffer. It is ignored by OpConfigure.
	Samples []float32

	// Params is merged into the engine parameters before the operation runs.
	Params *engine.Update

	// SampleRate overrides the engine sample rate for OpSynthesizeEcho when
	// positive.
	SampleRate float64
}

// Response carries the result of a Request with the same ID.
type Response struct {
	ID      uint64
	Samples []float32

	// Err is the failure text reported by the host, empty on success.
	Err string
}

// AppendRequest appends the payload encoding of req to dst.
func AppendRequest(dst []byte, req Request) []byte {
	dst = append(dst, KindRequest)
	dst = binary.LittleEndian.AppendUint64(dst, req.ID)
	dst = append(dst, byte(req.Op))
	dst = appendFloat64(dst, req.SampleRate)

	var (
		mask  byte
		slots [5]float64
	)
	if u := req.Params; u != nil {
		if u.KalmanGain != nil {
			mask |= maskKalmanGain
			slots[0] = *u.KalmanGain
		}
		if u.NLMSStepSize != nil {
			mask |= maskNLMSStepSize
			slots[1] = *u.NLMSStepSize
		}
		if u.FilterLength != nil {
			mask |= maskFilterLength
			slots[2] = float64(*u.FilterLength)
		}
		if u.EchoDelay != nil {
			mask |= maskEchoDelay
			slots[3] = *u.EchoDelay
		}
		if u.EchoIntensity != nil {
			mask |= maskEchoIntensity
			slots[4] = *u.EchoIntensity
		}
	}
	dst = append(dst, mask)
	for _, v := range slots {
		dst = appendFloat64(dst, v)
	}
	return appendSamples(dst, req.Samples)
}

// AppendResponse appends the payload encoding of resp to dst.
func AppendResponse(dst []byte, resp Response) []byte {
	dst = append(dst, KindResponse)
	dst = binary.LittleEndian.AppendUint64(dst, resp.ID)
	dst = appendSamples(dst, resp.Samples)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(resp.Err)))
	return append(dst, resp.Err...)
}

// DecodeRequest decodes a request payload.
func DecodeRequest(payload []byte) (Request, error) {
	d := decoder{buf: payload}
	if kind := d.readByte(); kind != KindRequest {
		return Request{}, fmt.Errorf("%w: kind %d, want request", ErrMalformed, kind)
	}
	req := Request{ID: d.readUint64()}
	req.Op = Op(d.readByte())
	req.SampleRate = d.readFloat64()

	mask := d.readByte()
	var slots [5]float64
	for i := range slots {
		slots[i] = d.readFloat64()
	}
	if d.err != nil {
		return Request{}, d.err
	}
	if mask != 0 {
		u := &engine.Update{}
		if mask&maskKalmanGain != 0 {
			u.KalmanGain = engine.Ptr(slots[0])
		}
		if mask&maskNLMSStepSize != 0 {
			u.NLMSStepSize = engine.Ptr(slots[1])
		}
		if mask&maskFilterLength != 0 {
			n, err := FilterLength(slots[2])
			if err != nil {
				return Request{}, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
			u.FilterLength = engine.Ptr(n)
		}
		if mask&maskEchoDelay != 0 {
			u.EchoDelay = engine.Ptr(slots[3])
		}
		if mask&maskEchoIntensity != 0 {
			u.EchoIntensity = engine.Ptr(slots[4])
		}
		req.Params = u
	}

	req.Samples = d.readSamples()
	if err := d.finish(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// DecodeResponse decodes a response payload.
func DecodeResponse(payload []byte) (Response, error) {
	d := decoder{buf: payload}
	if kind := d.readByte(); kind != KindResponse {
		return Response{}, fmt.Errorf("%w: kind %d, want response", ErrMalformed, kind)
	}
	resp := Response{ID: d.readUint64()}
	resp.Samples = d.readSamples()
	resp.Err = string(d.readBytes(int(d.readUint32())))
	if err := d.finish(); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// FilterLength converts a numeric filter length into a tap count. Values that
// are not whole numbers or do not fit an int are rejected; negative whole
// numbers pass through so the engine can report them.
func FilterLength(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("filter length %v is not an integer", v)
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("filter length %v out of range", v)
	}
	return int(v), nil
}

// WriteFrame writes payload prefixed with its length.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed payload. It returns io.EOF only when
// the stream ends cleanly between frames.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

func appendFloat64(dst []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
}

func appendSamples(dst []byte, samples []float32) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(samples)))
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
	}
	return dst
}

// decoder reads fields sequentially and records the first short read.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) readBytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.err = fmt.Errorf("%w: truncated at offset %d", ErrMalformed, d.off)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) readByte() byte {
	b := d.readBytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) readUint32() uint32 {
	b := d.readBytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) readUint64() uint64 {
	b := d.readBytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) readFloat64() float64 {
	return math.Float64frombits(d.readUint64())
}

func (d *decoder) readSamples() []float32 {
	n := int(d.readUint32())
	raw := d.readBytes(4 * n)
	if raw == nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out
}

func (d *decoder) finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(d.buf)-d.off)
	}
	return nil
}

// PeekID returns the request ID of a payload whose header is intact even if
// the rest of it cannot be decoded.
func PeekID(payload []byte) (uint64, bool) {
	if len(payload) < 9 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(payload[1:9]), true
}
