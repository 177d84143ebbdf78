// Package server exposes the engine operations over HTTP.
//
// Every processing request runs on a fresh engine taken from a worker pool,
// mirroring the one-worker-per-operation flow of the browser application.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/internal/observe"
	"github.com/cwbudde/echolab/worker"
)

// Config holds the dependencies of a Server.
type Config struct {
	// Pool runs processing requests. Required.
	Pool *worker.Pool

	// SampleRate is assumed for raw float32 bodies without a sample_rate
	// query parameter.
	SampleRate float64

	// Defaults are applied to every engine before the request parameters.
	Defaults engine.Update

	// MaxUploadBytes limits request bodies. Zero disables the limit.
	MaxUploadBytes int64

	// OriginPatterns are the cross-origin hosts allowed to open the
	// WebSocket worker endpoint.
	OriginPatterns []string

	// WorkerOptions configure engines behind the WebSocket endpoint.
	WorkerOptions []worker.Option

	Logger  *slog.Logger
	Metrics *observe.Metrics
}

// Server provides the HTTP API.
type Server struct {
	cfg    Config
	echo   *echo.Echo
	logger *slog.Logger
}

// New constructs a Server and registers all routes.
func New(cfg Config) *Server {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			if cfg.Metrics != nil {
				cfg.Metrics.RecordHTTPRequest(c.Request().Context(), v.Method, c.Path(), v.Status, v.Latency)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s := &Server{cfg: cfg, echo: e, logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1")
	api.GET("/params", s.handleParams)
	api.GET("/worker", echo.WrapHandler(worker.WebSocketHandler(s.workerOptions()...)))
	api.POST("/:op", s.handleProcess)
}

func (s *Server) workerOptions() []worker.Option {
	opts := []worker.Option{
		worker.WithLogger(s.logger),
		worker.WithSampleRate(s.cfg.SampleRate),
		worker.WithDefaults(s.cfg.Defaults),
		worker.WithOriginPatterns(s.cfg.OriginPatterns...),
	}
	if s.cfg.Metrics != nil {
		opts = append(opts, worker.WithMetrics(s.cfg.Metrics))
	}
	return append(opts, s.cfg.WorkerOptions...)
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run starts the HTTP server on addr and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutCtx)
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	LiveEngines int    `json:"live_engines"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		LiveEngines: s.cfg.Pool.Live(),
	})
}

func (s *Server) handleParams(c echo.Context) error {
	p := engine.DefaultParams()
	s.cfg.Defaults.Apply(&p)
	return c.JSON(http.StatusOK, p)
}
