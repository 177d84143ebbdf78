package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be >= 0, got %d", cfg.Server.MaxUploadBytes))
	}

	// Engine. Parameter values are otherwise passed through untouched.
	if !(cfg.Engine.SampleRate > 0) {
		errs = append(errs, fmt.Errorf("engine.sample_rate must be > 0, got %v", cfg.Engine.SampleRate))
	}
	if n := cfg.Engine.FilterLength; n != nil && *n < 0 {
		errs = append(errs, fmt.Errorf("engine.filter_length must be >= 0, got %d", *n))
	}

	// Worker
	if !cfg.Worker.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("worker.mode %q is invalid; valid values: inline, goroutine, subprocess", cfg.Worker.Mode))
	}
	if cfg.Worker.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("worker.max_concurrent must be >= 0, got %d", cfg.Worker.MaxConcurrent))
	}
	if cfg.Worker.Mode != ModeSubprocess && len(cfg.Worker.Command) > 0 {
		errs = append(errs, errors.New("worker.command is only used in subprocess mode"))
	}

	return errors.Join(errs...)
}
