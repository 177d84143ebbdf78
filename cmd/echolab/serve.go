package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/echolab/internal/observe"
	"github.com/cwbudde/echolab/internal/server"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	listen := fs.String("listen", "", "listen address (overrides server.listen_addr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "echolab: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "echolab: %v\n", err)
		}
		return 1
	}
	if *listen != "" {
		cfg.Server.ListenAddr = *listen
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)
	slog.Info("echolab starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"worker_mode", cfg.Worker.Mode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "echolab"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutCtx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	opts := workerOptions(cfg, logger, metrics)
	pool, err := newPool(cfg, opts)
	if err != nil {
		slog.Error("failed to create worker pool", "err", err)
		return 1
	}
	defer func() {
		if err := pool.Close(); err != nil {
			slog.Warn("worker pool close", "err", err)
		}
	}()

	srv := server.New(server.Config{
		Pool:           pool,
		SampleRate:     cfg.Engine.SampleRate,
		Defaults:       cfg.Engine.Defaults(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		OriginPatterns: cfg.Server.OriginPatterns,
		WorkerOptions:  opts,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err := srv.Run(ctx, cfg.Server.ListenAddr); err != nil {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("echolab stopped")
	return 0
}
