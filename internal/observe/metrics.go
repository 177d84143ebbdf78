// Package observe provides the OpenTelemetry metrics, tracing helpers and
// Prometheus bridge used by the worker boundary and the HTTP service.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is bound to
// the global meter provider; tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all echolab metrics.
const meterName = "github.com/cwbudde/echolab"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// TransformDuration tracks how long one engine transform takes. Use with
	// attribute.String("op", ...).
	TransformDuration metric.Float64Histogram

	// WorkerRequests counts requests handled by an engine host. Use with
	// attributes op and status ("ok" or "error").
	WorkerRequests metric.Int64Counter

	// SamplesProcessed counts input samples passed through a transform.
	SamplesProcessed metric.Int64Counter

	// ActiveEngines tracks the number of live engine instances.
	ActiveEngines metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes method, route and status.
	HTTPRequestDuration metric.Float64Histogram
}

// transformBuckets covers short clips through multi-second NLMS passes with
// long filters.
var transformBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TransformDuration, err = m.Float64Histogram("echolab.transform.duration",
		metric.WithDescription("Duration of one engine transform."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(transformBuckets...),
	); err != nil {
		return nil, err
	}
	if met.WorkerRequests, err = m.Int64Counter("echolab.worker.requests",
		metric.WithDescription("Requests handled by engine hosts."),
	); err != nil {
		return nil, err
	}
	if met.SamplesProcessed, err = m.Int64Counter("echolab.samples.processed",
		metric.WithDescription("Input samples passed through engine transforms."),
	); err != nil {
		return nil, err
	}
	if met.ActiveEngines, err = m.Int64UpDownCounter("echolab.worker.active_engines",
		metric.WithDescription("Engine instances currently alive."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("echolab.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(transformBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns metrics bound to the global meter provider. It is
// created on first use; call [InitProvider] before that to export them.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTransform records one handled worker request.
func (m *Metrics) RecordTransform(ctx context.Context, op string, samples int, elapsed time.Duration, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	opAttr := attribute.String("op", op)
	m.WorkerRequests.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("status", status)))
	m.TransformDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(opAttr))
	if samples > 0 {
		m.SamplesProcessed.Add(ctx, int64(samples), metric.WithAttributes(opAttr))
	}
}

// EngineStarted increments the active engine gauge.
func (m *Metrics) EngineStarted(ctx context.Context) {
	m.ActiveEngines.Add(ctx, 1)
}

// EngineStopped decrements the active engine gauge.
func (m *Metrics) EngineStopped(ctx context.Context) {
	m.ActiveEngines.Add(ctx, -1)
}

// RecordHTTPRequest records the duration of one HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}
