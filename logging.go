package proxylist

import "log/slog"

// Logger is the minimal structured logger the domain writes to.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	*slog.Logger
}

// NewSlogLogger wraps logger, falling back to slog.Default when nil.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return SlogLogger{Logger: logger}
}

// Debug implements Logger.
func (l SlogLogger) Debug(msg string, args ...any) { l.Logger.Debug(msg, args...) }

// Info implements Logger.
func (l SlogLogger) Info(msg string, args ...any) { l.Logger.Info(msg, args...) }

// Warn implements Logger.
func (l SlogLogger) Warn(msg string, args ...any) { l.Logger.Warn(msg, args...) }

// Error implements Logger.
func (l SlogLogger) Error(msg string, args ...any) { l.Logger.Error(msg, args...) }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger returns a Logger that discards everything.
func NoopLogger() Logger {
	return noopLogger{}
}
