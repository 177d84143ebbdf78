// Package config defines the echolab configuration schema and YAML loading.
package config

import (
	"log/slog"

	"github.com/cwbudde/echolab/engine"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to a slog level. Unknown levels map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WorkerMode selects where engines run.
type WorkerMode string

const (
	// ModeInline runs engines on the calling goroutine.
	ModeInline WorkerMode = "inline"

	// ModeGoroutine runs each engine on its own goroutine.
	ModeGoroutine WorkerMode = "goroutine"

	// ModeSubprocess runs each engine in a child process.
	ModeSubprocess WorkerMode = "subprocess"
)

// IsValid reports whether m is a recognised worker mode.
func (m WorkerMode) IsValid() bool {
	switch m {
	case ModeInline, ModeGoroutine, ModeSubprocess:
		return true
	}
	return false
}

// Config is the root configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Worker WorkerConfig `yaml:"worker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MaxUploadBytes limits request bodies. Zero disables the limit.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// OriginPatterns lists cross-origin hosts allowed to open the worker
	// WebSocket, e.g. "localhost:5173". Same-origin requests are always
	// accepted.
	OriginPatterns []string `yaml:"origin_patterns"`
}

// EngineConfig holds the parameters new engines start with. Absent
// parameters keep the engine defaults.
type EngineConfig struct {
	// SampleRate converts echo delays to samples. WAV header rates do not
	// override it unless asked to explicitly.
	SampleRate float64 `yaml:"sample_rate"`

	engine.Update `yaml:",inline"`
}

// Defaults returns the parameter overrides as an engine update.
func (e EngineConfig) Defaults() engine.Update {
	return e.Update
}

// WorkerConfig selects and bounds the engine hosts.
type WorkerConfig struct {
	Mode WorkerMode `yaml:"mode"`

	// MaxConcurrent bounds concurrently running operations. Zero means
	// GOMAXPROCS.
	MaxConcurrent int `yaml:"max_concurrent"`

	// Command is the worker executable and its arguments for subprocess
	// mode. An empty command re-executes the running binary as
	// "echolab worker".
	Command []string `yaml:"command"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     ":8080",
			LogLevel:       LogInfo,
			MaxUploadBytes: 64 << 20,
		},
		Engine: EngineConfig{
			SampleRate: 44100,
		},
		Worker: WorkerConfig{
			Mode: ModeGoroutine,
		},
	}
}
