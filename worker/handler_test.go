package worker

import (
	"context"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/internal/observe"
	"github.com/cwbudde/echolab/internal/testutil"
)

func TestDispatchMatchesEngine(t *testing.T) {
	in := testutil.NoisyEcho(2048, 300, 0.5, 1)
	u := engine.Update{FilterLength: engine.Ptr(64), EchoDelay: engine.Ptr(5.0)}

	direct := engine.New()
	direct.Configure(u)
	wantEcho := direct.SynthesizeEcho(in)
	wantCancel, err := direct.CancelEcho(in)
	if err != nil {
		t.Fatal(err)
	}
	wantDenoise := direct.Denoise(in)
	wantBoth, err := direct.DenoiseAndCancelEcho(in)
	if err != nil {
		t.Fatal(err)
	}

	eng := engine.New()
	if resp := Dispatch(eng, Request{ID: 3, Op: OpConfigure, Params: &u}); resp.ID != 3 || resp.Err != "" || resp.Samples != nil {
		t.Fatalf("configure response = %+v", resp)
	}

	tests := []struct {
		op   Op
		want []float32
	}{
		{OpSynthesizeEcho, wantEcho},
		{OpCancelEcho, wantCancel},
		{OpDenoise, wantDenoise},
		{OpDenoiseAndCancelEcho, wantBoth},
	}
	for _, tc := range tests {
		t.Run(tc.op.String(), func(t *testing.T) {
			resp := Dispatch(eng, Request{ID: 9, Op: tc.op, Samples: in})
			if resp.Err != "" {
				t.Fatalf("Err = %q", resp.Err)
			}
			if resp.ID != 9 {
				t.Fatalf("ID = %d, want 9", resp.ID)
			}
			testutil.RequireSamplesIdentical(t, resp.Samples, tc.want)
		})
	}
}

func TestDispatchMergesParamsPersistently(t *testing.T) {
	eng := engine.New()
	Dispatch(eng, Request{Op: OpCancelEcho, Samples: []float32{1, 2}, Params: &engine.Update{NLMSStepSize: engine.Ptr(0.3)}})
	if got := eng.Params().NLMSStepSize; got != 0.3 {
		t.Fatalf("NLMSStepSize = %v, want 0.3", got)
	}
	if got := eng.Params().FilterLength; got != engine.DefaultFilterLength {
		t.Fatalf("FilterLength = %d, want default", got)
	}
}

func TestDispatchSampleRateOverride(t *testing.T) {
	in := testutil.Float32(testutil.Impulse(64, 0))
	eng := engine.New()
	eng.Configure(engine.Update{EchoDelay: engine.Ptr(1.0)})

	resp := Dispatch(eng, Request{Op: OpSynthesizeEcho, Samples: in, SampleRate: 8000})
	if resp.Samples[8] != 0.5 {
		t.Fatalf("echo at 8 = %v, want 0.5", resp.Samples[8])
	}
}

func TestDispatchFailures(t *testing.T) {
	eng := engine.New()
	eng.Configure(engine.Update{FilterLength: engine.Ptr(-1)})

	resp := Dispatch(eng, Request{ID: 5, Op: OpCancelEcho, Samples: []float32{1}})
	if resp.Err == "" || resp.Samples != nil || resp.ID != 5 {
		t.Fatalf("response = %+v, want error without samples", resp)
	}

	resp = Dispatch(eng, Request{Op: Op(42)})
	if !strings.Contains(resp.Err, "unknown op") {
		t.Fatalf("Err = %q", resp.Err)
	}
}

func TestHandlerRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatal(err)
	}

	tr := NewInline(nil, WithMetrics(m))
	px := NewProxy(tr)
	if _, err := px.Denoise(context.Background(), make([]float32, 100)); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if sum, ok := met.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					values[met.Name] += dp.Value
				}
			}
		}
	}
	if values["echolab.samples.processed"] != 100 {
		t.Fatalf("samples processed = %d, want 100", values["echolab.samples.processed"])
	}
	if values["echolab.worker.active_engines"] != 1 {
		t.Fatalf("active engines = %d, want 1", values["echolab.worker.active_engines"])
	}

	if err := px.Close(); err != nil {
		t.Fatal(err)
	}
	rm = metricdata.ResourceMetrics{}
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name == "echolab.worker.active_engines" {
				if v := met.Data.(metricdata.Sum[int64]).DataPoints[0].Value; v != 0 {
					t.Fatalf("active engines after close = %d, want 0", v)
				}
			}
		}
	}
}
