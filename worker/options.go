package worker

import (
	"log/slog"

	"github.com/cwbudde/echolab/dsp/core"
	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/internal/observe"
)

// Option configures how a host runs its engine.
type Option func(*options)

type options struct {
	metrics    *observe.Metrics
	logger     *slog.Logger
	engineOpts []core.ProcessorOption
	defaults   engine.Update
	origins    []string
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMetrics records request metrics into m.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSampleRate sets the sample rate of engines created by the host.
func WithSampleRate(rate float64) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, core.WithSampleRate(rate))
	}
}

// WithDefaults merges u into the parameters of engines created by the host.
func WithDefaults(u engine.Update) Option {
	return func(o *options) {
		o.defaults = o.defaults.Merge(u)
	}
}

// WithOriginPatterns lists the cross-origin hosts a WebSocketHandler
// accepts, as path.Match patterns such as "*.example.com". Requests whose
// Origin host differs from the request host are rejected otherwise.
func WithOriginPatterns(patterns ...string) Option {
	return func(o *options) {
		o.origins = append(o.origins, patterns...)
	}
}

// newEngine creates an engine with the configured rate and defaults.
func (o options) newEngine() *engine.Engine {
	eng := engine.New(o.engineOpts...)
	if !o.defaults.IsZero() {
		eng.Configure(o.defaults)
	}
	return eng
}
