package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// Option configures an Observer.
type Option func(*config)

type config struct {
	format Format
	level  slog.Level
	output io.Writer
	colors bool
	logger *slog.Logger
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the destination writer. Defaults to os.Stderr so that
// command output on stdout stays clean.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
	}
}

// WithColors forces ANSI colors on or off for the compact and pretty formats.
func WithColors(enabled bool) Option {
	return func(c *config) {
		c.colors = enabled
	}
}

// WithLogger routes everything through an existing logger and ignores the
// format, level, output and colors options.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func applyOptions(opts ...Option) *config {
	cfg := &config{
		format: FormatFromEnv(),
		level:  LevelFromEnv(),
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
