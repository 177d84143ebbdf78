// Command echolab adds, removes and measures echo in audio clips.
//
// Usage:
//
//	echolab <command> [flags] [args]
//
// Commands:
//
//	process   run one or more operations over a WAV file
//	analyze   print level and spectral metrics of WAV files
//	serve     start the HTTP API
//	worker    serve one engine on stdin/stdout (used by subprocess mode)
//
// Examples:
//
//	echolab process -op echo,cancel -echo-delay 120 in.wav out.wav
//	echolab analyze -ref in.wav out.wav
//	echolab serve -config echolab.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/cwbudde/echolab/engine"
	"github.com/cwbudde/echolab/internal/config"
	"github.com/cwbudde/echolab/internal/observe"
	"github.com/cwbudde/echolab/worker"
	"github.com/cwbudde/echolab/worker/wire"
)

type command struct {
	name  string
	usage string
	run   func(args []string) int
}

func commands() []command {
	return []command{
		{"process", "run one or more operations over a WAV file", runProcess},
		{"analyze", "print level and spectral metrics of WAV files", runAnalyze},
		{"serve", "start the HTTP API", runServe},
		{"worker", "serve one engine on stdin/stdout", runWorker},
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(os.Stderr)
		return 2
	}
	for _, c := range commands() {
		if c.name == args[0] {
			return c.run(args[1:])
		}
	}
	fmt.Fprintf(os.Stderr, "echolab: unknown command %q\n\n", args[0])
	usage(os.Stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: echolab <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
}

// loadConfig returns the file at path, or the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level.Level()}))
}

// paramFlags registers one flag per engine parameter. Only flags that are
// given on the command line end up in the returned update.
func paramFlags(fs *flag.FlagSet) *engine.Update {
	u := &engine.Update{}
	floatFlag := func(name, usage string, dst **float64) {
		fs.Func(name, usage, func(s string) error {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*dst = engine.Ptr(v)
			return nil
		})
	}
	floatFlag("kalman-gain", "Kalman measurement noise R (default 0.5)", &u.KalmanGain)
	floatFlag("nlms-step-size", "NLMS adaptation rate mu (default 0.1)", &u.NLMSStepSize)
	floatFlag("echo-delay", "echo delay in milliseconds (default 100)", &u.EchoDelay)
	floatFlag("echo-intensity", "echo intensity in percent (default 50)", &u.EchoIntensity)
	fs.Func("filter-length", "NLMS tap count (default 1024)", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		n, err := wire.FilterLength(v)
		if err != nil {
			return err
		}
		u.FilterLength = engine.Ptr(n)
		return nil
	})
	return u
}

// workerOptions returns the host options derived from cfg.
func workerOptions(cfg *config.Config, logger *slog.Logger, metrics *observe.Metrics) []worker.Option {
	opts := []worker.Option{
		worker.WithLogger(logger),
		worker.WithSampleRate(cfg.Engine.SampleRate),
		worker.WithDefaults(cfg.Engine.Defaults()),
	}
	if metrics != nil {
		opts = append(opts, worker.WithMetrics(metrics))
	}
	return opts
}

// newPool builds the engine pool for the configured worker mode.
func newPool(cfg *config.Config, opts []worker.Option) (*worker.Pool, error) {
	var factory worker.Factory
	switch cfg.Worker.Mode {
	case config.ModeInline:
		factory = worker.InlineFactory(opts...)
	case config.ModeGoroutine:
		factory = worker.HostFactory(opts...)
	case config.ModeSubprocess:
		name, args, err := workerCommand(cfg.Worker.Command)
		if err != nil {
			return nil, err
		}
		factory = worker.SpawnFactory(name, args...)
	default:
		return nil, fmt.Errorf("unknown worker mode %q", cfg.Worker.Mode)
	}
	return worker.NewPool(factory, cfg.Worker.MaxConcurrent), nil
}

// workerCommand returns the subprocess command line. Without an explicit
// command the running binary is started as "echolab worker".
func workerCommand(command []string) (string, []string, error) {
	if len(command) > 0 {
		return command[0], command[1:], nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", nil, fmt.Errorf("locate worker executable: %w", err)
	}
	return self, []string{"worker"}, nil
}
