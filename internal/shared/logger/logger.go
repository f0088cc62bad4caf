// Package logger wraps log/slog with the handler setup used across the
// application: tinted text output for terminals, JSON for everything
// else.
package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger is a thin wrapper over slog.Logger. The bare handler is kept
// so WithComponent can rebuild from it instead of stacking a second
// component attribute onto the first.
type Logger struct {
	*slog.Logger
	handler slog.Handler
	config  Config
}

// Level is the logging level as configured (string form, so it can come
// straight from config files and flags).
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the log output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logger configuration.
type Config struct {
	Level      Level  `mapstructure:"level"`
	Format     Format `mapstructure:"format"`
	AddSource  bool   `mapstructure:"add_source"`
	Component  string `mapstructure:"component"`
	TimeFormat string `mapstructure:"time_format"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		AddSource:  false,
		Component:  "tunnelctl",
		TimeFormat: time.RFC3339,
	}
}

// New creates a logger with the provided configuration.
func New(config Config) *Logger {
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}
	level := parseLevel(config.Level)
	handler := newHandler(config, level)

	l := slog.New(handler)
	if config.Component != "" {
		l = l.With(slog.String("component", config.Component))
	}

	return &Logger{Logger: l, handler: handler, config: config}
}

// NewDevelopment creates a logger for development and tests: debug
// level, tinted text, short timestamps.
func NewDevelopment(component string) *Logger {
	return New(Config{
		Level:      LevelDebug,
		Format:     FormatText,
		AddSource:  true,
		Component:  component,
		TimeFormat: time.Kitchen,
	})
}

// With returns a new logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), handler: l.handler, config: l.config}
}

// WithComponent returns a logger scoped to a sub-component. The new
// logger starts from the bare handler, so the component attribute is
// replaced rather than duplicated.
func (l *Logger) WithComponent(name string) *Logger {
	cfg := l.config
	cfg.Component = name

	lg := slog.New(l.handler)
	if name != "" {
		lg = lg.With(slog.String("component", name))
	}
	return &Logger{Logger: lg, handler: l.handler, config: cfg}
}

func parseLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(config Config, level slog.Level) slog.Handler {
	if config.Format == FormatJSON {
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     level,
			AddSource: config.AddSource,
		})
	}
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: config.TimeFormat,
		AddSource:  config.AddSource,
	})
}
