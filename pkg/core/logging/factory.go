// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     logging
// Description: Logger factory and key-value logging facade
// Author:      Mike Stoffels
// Created:     2026-10-02
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	vlog "github.com/msto63/vaani/pkg/core/log"
)

var (
	defaultsMu sync.RWMutex
	defaults   = LoggerConfig{Level: "info", Format: "text", Output: os.Stderr}
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service or component name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json", "text" or "console"
	Format string

	// Output writer, stderr when nil
	Output io.Writer

	// Additional outputs, e.g. a log file
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns the process-wide configuration for a component
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()

	cfg := defaults
	cfg.ServiceName = serviceName
	return cfg
}

// Configure sets the process-wide defaults used by New.
// Loggers created before the call keep their settings.
func Configure(cfg LoggerConfig) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()

	if cfg.Level != "" {
		defaults.Level = cfg.Level
	}
	if cfg.Format != "" {
		defaults.Format = cfg.Format
	}
	if cfg.Output != nil {
		defaults.Output = cfg.Output
	}
	defaults.AdditionalOutputs = cfg.AdditionalOutputs
}

// NewLogger creates a structured logger
func NewLogger(cfg LoggerConfig) *vlog.Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}
	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	format, err := vlog.ParseFormat(cfg.Format)
	if err != nil {
		format = vlog.FormatText
	}

	return vlog.NewWithConfig(vlog.Config{
		Level:  parseLevel(cfg.Level),
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})
}

// NewSimpleLogger creates a structured logger with process defaults
func NewSimpleLogger(serviceName string) *vlog.Logger {
	return NewLogger(DefaultLoggerConfig(serviceName))
}

func parseLevel(level string) vlog.Level {
	parsed, err := vlog.ParseLevel(level)
	if err != nil {
		return vlog.LevelInfo
	}
	return parsed
}

// Logger wraps the structured logger with key-value methods
type Logger struct {
	*vlog.Logger
	name string
}

// New creates a component logger using the process defaults
func New(name string) *Logger {
	return &Logger{
		Logger: NewSimpleLogger(name),
		name:   name,
	}
}

// WithSession returns a logger tagging entries with the session ID
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{Logger: l.Logger.WithSession(sessionID), name: l.name}
}

// With returns a logger carrying key on every entry
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{Logger: l.Logger.WithField(key, value), name: l.name}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to fields; non-string keys and a trailing key are dropped
func toFields(keysAndValues ...interface{}) vlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(vlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
