package server

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/wavio"
	"github.com/cwbudde/echolab/worker"
	"github.com/cwbudde/echolab/worker/wire"
)

// Media types accepted by POST /api/v1/:op.
const (
	mimeRaw = "application/octet-stream"
	mimeWAV = "audio/wav"
)

func (s *Server) handleProcess(c echo.Context) error {
	op, err := worker.ParseOp(c.Param("op"))
	if err != nil || !op.IsTransform() {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown operation %q", c.Param("op")))
	}

	u, err := parseUpdate(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	params := s.cfg.Defaults.Merge(u)

	body, err := s.readBody(c)
	if err != nil {
		return err
	}

	mediaType, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	var (
		samples  []float32
		rate     float64
		fileRate int
	)
	switch mediaType {
	case mimeWAV, "audio/wave", "audio/x-wav":
		clip, err := wavio.DecodeBytes(body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		samples, fileRate = clip.Samples, clip.SampleRate
		// The header rate only labels the response. Echo timing follows
		// the engine rate unless sample_rate is given explicitly.
		rate, err = parseRate(c, 0)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	case mimeRaw, "":
		samples, err = decodeRaw(body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		rate, err = parseRate(c, s.cfg.SampleRate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	default:
		return echo.NewHTTPError(http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported content type %q", mediaType))
	}

	out, err := s.cfg.Pool.Do(c.Request().Context(), worker.Request{
		Op:         op,
		Params:     &params,
		Samples:    samples,
		SampleRate: rate,
	})
	if err != nil {
		var remote *worker.RemoteError
		if errors.As(err, &remote) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, remote.Message)
		}
		s.logger.Error("process request failed", "op", op.String(), "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}

	c.Response().Header().Set("X-Echolab-Op", op.String())
	if fileRate > 0 {
		data, err := wavio.EncodeBytes(out, fileRate)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.Blob(http.StatusOK, mimeWAV, data)
	}
	return c.Blob(http.StatusOK, mimeRaw, encodeRaw(out))
}

func (s *Server) readBody(c echo.Context) ([]byte, error) {
	r := c.Request().Body
	if s.cfg.MaxUploadBytes > 0 {
		r = http.MaxBytesReader(c.Response(), r, s.cfg.MaxUploadBytes)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return body, nil
}

// parseUpdate reads the sparse parameter set from the query string.
func parseUpdate(c echo.Context) (engine.Update, error) {
	var u engine.Update
	floatParams := []struct {
		name string
		dst  **float64
	}{
		{"kalman_gain", &u.KalmanGain},
		{"nlms_step_size", &u.NLMSStepSize},
		{"echo_delay", &u.EchoDelay},
		{"echo_intensity", &u.EchoIntensity},
	}
	for _, p := range floatParams {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return engine.Update{}, fmt.Errorf("invalid %s %q", p.name, raw)
		}
		*p.dst = engine.Ptr(v)
	}

	if raw := c.QueryParam("filter_length"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return engine.Update{}, fmt.Errorf("invalid filter_length %q", raw)
		}
		n, err := wire.FilterLength(v)
		if err != nil {
			return engine.Update{}, err
		}
		u.FilterLength = engine.Ptr(n)
	}
	return u, nil
}

func parseRate(c echo.Context, fallback float64) (float64, error) {
	raw := c.QueryParam("sample_rate")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid sample_rate %q", raw)
	}
	return v, nil
}

// decodeRaw reads little-endian float32 samples.
func decodeRaw(body []byte) ([]float32, error) {
	if len(body)%4 != 0 {
		return nil, fmt.Errorf("raw body length %d is not a multiple of 4", len(body))
	}
	out := make([]float32, len(body)/4)
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeRaw(samples []float32) []byte {
	buf := make([]byte, 0, 4*len(samples))
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(s))
	}
	return buf
}
