package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"

	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/internal/testutil"
	"github.com/cwbudde/echolab/wavio"
	"github.com/cwbudde/echolab/worker"
)

func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	pool := worker.NewPool(worker.InlineFactory(), 2)
	t.Cleanup(func() { _ = pool.Close() })
	cfg := Config{Pool: pool}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func do(s *Server, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	if err := s.handleHealth(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.LiveEngines != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestParamsEndpointAppliesDefaults(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.Defaults = engine.Update{EchoDelay: engine.Ptr(42.0)}
	})
	rec := do(s, http.MethodGet, "/api/v1/params", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var p engine.Params
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	want := engine.DefaultParams()
	want.EchoDelay = 42
	if p != want {
		t.Fatalf("params = %+v, want %+v", p, want)
	}
}

func TestProcessRaw(t *testing.T) {
	s := newTestServer(t, nil)
	in := testutil.NoisyEcho(2048, 200, 0.5, 4)

	rec := do(s, http.MethodPost, "/api/v1/cancel_echo?filter_length=64&nlms_step_size=0.2", "application/octet-stream", encodeRaw(in))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Echolab-Op"); got != "cancel_echo" {
		t.Fatalf("X-Echolab-Op = %q", got)
	}
	got, err := decodeRaw(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	eng := engine.New()
	eng.Configure(engine.Update{FilterLength: engine.Ptr(64), NLMSStepSize: engine.Ptr(0.2)})
	want, err := eng.CancelEcho(in)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSamplesIdentical(t, got, want)
}

func TestProcessRawSampleRate(t *testing.T) {
	s := newTestServer(t, nil)
	in := testutil.Float32(testutil.Impulse(32, 0))

	rec := do(s, http.MethodPost, "/api/v1/echo?echo_delay=1&sample_rate=16000", "", encodeRaw(in))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got, _ := decodeRaw(rec.Body.Bytes())
	if got[16] != 0.5 {
		t.Fatalf("echo at 16 = %v, want 0.5", got[16])
	}
}

func TestProcessWAV(t *testing.T) {
	s := newTestServer(t, nil)
	in := testutil.Float32(testutil.Impulse(400, 0))
	for i := range in {
		in[i] *= 0.5
	}
	body, err := wavio.EncodeBytes(in, 48000)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		query string
		echo  int
	}{
		// 2 ms at the 44.1 kHz engine rate, whatever the header says.
		{"header rate ignored", "", 88},
		{"explicit rate", "&sample_rate=48000", 96},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/api/v1/synthesize_echo?echo_delay=2&echo_intensity=100"+tc.query, "audio/wav", body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
				t.Fatalf("Content-Type = %q", ct)
			}
			clip, err := wavio.DecodeBytes(rec.Body.Bytes())
			if err != nil {
				t.Fatal(err)
			}
			if clip.SampleRate != 48000 || len(clip.Samples) != 400 {
				t.Fatalf("clip = %d Hz, %d samples", clip.SampleRate, len(clip.Samples))
			}
			for i, v := range clip.Samples[1:] {
				pos := i + 1
				if pos == tc.echo {
					if v < 0.49 {
						t.Fatalf("echo at %d = %v, want 0.5", pos, v)
					}
				} else if v != 0 {
					t.Fatalf("out[%d] = %v, want 0", pos, v)
				}
			}
		})
	}
}

func TestProcessErrors(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.MaxUploadBytes = 64 })
	raw := encodeRaw([]float32{0.1, 0.2})

	tests := []struct {
		name        string
		target      string
		contentType string
		body        []byte
		want        int
	}{
		{"unknown op", "/api/v1/reverb", "", raw, http.StatusNotFound},
		{"configure is not a transform", "/api/v1/configure", "", raw, http.StatusNotFound},
		{"bad float", "/api/v1/cancel_echo?kalman_gain=abc", "", raw, http.StatusBadRequest},
		{"fractional filter length", "/api/v1/cancel_echo?filter_length=2.5", "", raw, http.StatusBadRequest},
		{"bad sample rate", "/api/v1/echo?sample_rate=-1", "", raw, http.StatusBadRequest},
		{"ragged raw body", "/api/v1/denoise", "application/octet-stream", []byte{1, 2, 3}, http.StatusBadRequest},
		{"bad wav", "/api/v1/denoise", "audio/wav", []byte("not a wav"), http.StatusBadRequest},
		{"media type", "/api/v1/denoise", "text/plain", raw, http.StatusUnsupportedMediaType},
		{"too large", "/api/v1/denoise", "", make([]byte, 128), http.StatusRequestEntityTooLarge},
		{"engine failure", "/api/v1/cancel_echo?filter_length=-1", "", raw, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, tc.target, tc.contentType, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestProcessEmptyBody(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/v1/denoise_and_cancel_echo", "application/octet-stream", nil)
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("status = %d, body = %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestWorkerWebSocketEndpoint(t *testing.T) {
	s := newTestServer(t, func(c *Config) {
		c.Defaults = engine.Update{FilterLength: engine.Ptr(16)}
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	ws, err := worker.DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/worker")
	if err != nil {
		t.Fatal(err)
	}
	px := worker.NewProxy(ws)
	defer px.Close()

	in := testutil.NoisyEcho(512, 30, 0.5, 9)
	got, err := px.CancelEcho(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	eng := engine.New()
	eng.Configure(engine.Update{FilterLength: engine.Ptr(16)})
	want, err := eng.CancelEcho(in)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSamplesIdentical(t, got, want)
}

func TestWorkerWebSocketOrigin(t *testing.T) {
	dial := func(t *testing.T, patterns []string) error {
		t.Helper()
		s := newTestServer(t, func(c *Config) { c.OriginPatterns = patterns })
		srv := httptest.NewServer(s.Handler())
		t.Cleanup(srv.Close)

		ws, _, err := websocket.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/worker",
			&websocket.DialOptions{HTTPHeader: http.Header{"Origin": []string{"https://app.example.com"}}})
		if err == nil {
			ws.CloseNow()
		}
		return err
	}

	if err := dial(t, nil); err == nil {
		t.Fatal("cross-origin dial succeeded without an allowed pattern")
	}
	if err := dial(t, []string{"*.example.com"}); err != nil {
		t.Fatalf("dial with allowed origin: %v", err)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Run = %v", err)
	}
}
