package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/internal/observe"
)

// Dispatch runs req against eng. Parameters carried by the request are merged
// into the engine before the operation runs and persist afterwards.
func Dispatch(eng *engine.Engine, req Request) Response {
	resp := Response{ID: req.ID}
	if req.Params != nil {
		eng.Configure(*req.Params)
	}

	var err error
	switch req.Op {
	case OpConfigure:
	case OpSynthesizeEcho:
		resp.Samples = eng.SynthesizeEchoAt(req.Samples, req.SampleRate)
	case OpCancelEcho:
		resp.Samples, err = eng.CancelEcho(req.Samples)
	case OpDenoise:
		resp.Samples = eng.Denoise(req.Samples)
	case OpDenoiseAndCancelEcho:
		resp.Samples, err = eng.DenoiseAndCancelEcho(req.Samples)
	default:
		err = fmt.Errorf("worker: unknown op %v", req.Op)
	}
	if err != nil {
		resp.Samples = nil
		resp.Err = err.Error()
	}
	return resp
}

// handler wraps Dispatch with tracing, logging and metrics for one engine.
type handler struct {
	eng     *engine.Engine
	metrics *observe.Metrics
	logger  *slog.Logger
}

func newHandler(eng *engine.Engine, o options) *handler {
	h := &handler{eng: eng, metrics: o.metrics, logger: o.logger}
	if h.metrics != nil {
		h.metrics.EngineStarted(context.Background())
	}
	return h
}

func (h *handler) handle(ctx context.Context, req Request) Response {
	ctx, span := observe.StartSpan(ctx, "worker."+req.Op.String(),
		trace.WithAttributes(
			attribute.String("op", req.Op.String()),
			attribute.Int("samples", len(req.Samples)),
		))
	defer span.End()

	start := time.Now()
	resp := Dispatch(h.eng, req)
	elapsed := time.Since(start)

	log := observe.Logger(ctx, h.logger).With("op", req.Op.String(), "id", req.ID)
	if req.Params != nil {
		log = log.With("params", *req.Params)
	}
	failed := resp.Err != ""
	if failed {
		span.SetStatus(codes.Error, resp.Err)
		log.Warn("worker request failed", "err", resp.Err)
	} else {
		log.Debug("worker request handled", "samples", len(req.Samples), "elapsed", elapsed)
	}
	if h.metrics != nil {
		samples := 0
		if req.Op.IsTransform() {
			samples = len(req.Samples)
		}
		h.metrics.RecordTransform(ctx, req.Op.String(), samples, elapsed, failed)
	}
	return resp
}

func (h *handler) close() {
	if h.metrics != nil {
		h.metrics.EngineStopped(context.Background())
	}
}
