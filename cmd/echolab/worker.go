package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/echolab/worker"
)

// runWorker serves one engine over the wire protocol on stdin/stdout. All
// logging goes to stderr so stdout carries nothing but frames.
func runWorker(args []string) int {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "echolab: %v\n", err)
		return 1
	}
	logger := newLogger(cfg.Server.LogLevel).With("pid", os.Getpid())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rwc := worker.JoinStreams(os.Stdin, os.Stdout)
	if err := worker.ServeStream(ctx, rwc, nil, workerOptions(cfg, logger, nil)...); err != nil {
		logger.Error("worker stopped", "err", err)
		return 1
	}
	return 0
}
