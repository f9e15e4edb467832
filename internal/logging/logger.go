// Package logging provides structured logging using zerolog.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance
var Logger zerolog.Logger

type ctxKey string

const loggerKey ctxKey = "logger"

// Config holds logging configuration
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Format is the output format (json, console)
	Format string `mapstructure:"format"`

	// Output is where logs are written, stderr when nil
	Output io.Writer `mapstructure:"-"`

	EnableCaller bool `mapstructure:"caller"`
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "console",
		Output: os.Stderr,
	}
}

// Init initializes the global logger
func Init(cfg Config) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.EnableCaller {
		ctx = ctx.Caller()
	}
	Logger = ctx.Logger()
}

// ParseLevel converts a level name; unknown names fall back to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger from the context, or the global logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger
}

// Component creates a logger with a component field
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithView creates a logger carrying the view name
func WithView(name string) zerolog.Logger {
	return Logger.With().Str("view", name).Logger()
}

func init() {
	Init(DefaultConfig())
}
