package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cwbudde/echolab/measure/analysis"
	"github.com/cwbudde/echolab/wavio"
	"github.com/cwbudde/echolab/worker"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	ops := fs.String("op", "process", "comma-separated operations: echo, cancel, denoise, process")
	report := fs.Bool("report", false, "print level metrics of input and output")
	useFileRate := fs.Bool("use-file-rate", false, "time the echo delay with the input file's sample rate instead of engine.sample_rate")
	update := paramFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: echolab process [flags] in.wav out.wav")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	var stages []worker.Op
	for _, name := range strings.Split(*ops, ",") {
		op, err := worker.ParseOp(strings.TrimSpace(name))
		if err != nil || !op.IsTransform() {
			fmt.Fprintf(os.Stderr, "echolab: invalid operation %q\n", name)
			return 2
		}
		stages = append(stages, op)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "echolab: %v\n", err)
		return 1
	}
	logger := newLogger(cfg.Server.LogLevel)

	in, err := os.Open(fs.Arg(0))
	if err != nil {
		logger.Error("open input", "err", err)
		return 1
	}
	clip, err := wavio.Decode(in)
	in.Close()
	if err != nil {
		logger.Error("decode input", "path", fs.Arg(0), "err", err)
		return 1
	}
	logger.Info("input loaded", "path", fs.Arg(0), "samples", len(clip.Samples),
		"sample_rate", clip.SampleRate, "channels", clip.Channels)

	pool, err := newPool(cfg, workerOptions(cfg, logger, nil))
	if err != nil {
		logger.Error("create worker pool", "err", err)
		return 1
	}
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params := cfg.Engine.Defaults().Merge(*update)
	samples := clip.Samples
	var echoRate float64
	if *useFileRate {
		echoRate = float64(clip.SampleRate)
	}
	// Each stage runs on a fresh engine, like a new worker per operation.
	for _, op := range stages {
		samples, err = pool.Do(ctx, worker.Request{
			Op:         op,
			Params:     &params,
			Samples:    samples,
			SampleRate: echoRate,
		})
		if err != nil {
			logger.Error("operation failed", "op", op.String(), "err", err)
			return 1
		}
		logger.Info("operation done", "op", op.String(), "params", params)
	}

	out, err := os.Create(fs.Arg(1))
	if err != nil {
		logger.Error("create output", "err", err)
		return 1
	}
	if err := wavio.Encode(out, samples, clip.SampleRate); err != nil {
		out.Close()
		logger.Error("encode output", "path", fs.Arg(1), "err", err)
		return 1
	}
	if err := out.Close(); err != nil {
		logger.Error("close output", "err", err)
		return 1
	}

	if *report {
		before, err := analysis.Analyze(clip.Samples, float64(clip.SampleRate))
		if err != nil {
			logger.Error("analyze input", "err", err)
			return 1
		}
		after, err := analysis.Analyze(samples, float64(clip.SampleRate))
		if err != nil {
			logger.Error("analyze output", "err", err)
			return 1
		}
		fmt.Printf("in:   %s\nout:  %s\nERLE: %s\n", before, after, formatERLE(clip.Samples, samples, logger))
	}
	return 0
}

// formatERLE renders the echo return loss enhancement of after against
// before, or "-" when it cannot be computed.
func formatERLE(before, after []float32, logger *slog.Logger) string {
	v, err := analysis.ERLE(before, after)
	if err != nil {
		logger.Warn("compute ERLE", "err", err)
		return "-"
	}
	return fmt.Sprintf("%.2f dB", v)
}
