// ============================================================================
// agones-sdk-go - Go client for the Agones game server sidecar
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating logrus based loggers
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const sourceKey = "source"

var (
	defaultsMu    sync.RWMutex
	defaultLevel  = "info"
	defaultFormat = "json"
	defaultOutput io.Writer = os.Stderr
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service or component name, logged as "source"
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json" or "text" (default: json)
	Format string

	// Output defaults to stderr so stdout stays free for command output
	Output io.Writer

	// Additional outputs besides Output
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
	}
}

// SetDefaults changes level, format and output used by New and NewSimpleLogger.
// Empty values leave the current default untouched.
func SetDefaults(level, format string, output io.Writer) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	if level != "" {
		defaultLevel = level
	}
	if format != "" {
		defaultFormat = format
	}
	if output != nil {
		defaultOutput = output
	}
}

func currentDefaults(serviceName string) LoggerConfig {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       defaultLevel,
		Format:      defaultFormat,
		Output:      defaultOutput,
	}
}

// NewLogger creates a new logrus entry tagged with the service name
func NewLogger(cfg LoggerConfig) *logrus.Entry {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}
	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(ParseLevel(cfg.Level))
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger.WithField(sourceKey, cfg.ServiceName)
}

// NewSimpleLogger creates a logger using the package defaults
func NewSimpleLogger(serviceName string) *logrus.Entry {
	return NewLogger(currentDefaults(serviceName))
}

// ParseLevel converts a string level to a logrus level, defaulting to info
func ParseLevel(level string) logrus.Level {
	switch level {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger wraps a logrus entry with key/value style methods
type Logger struct {
	*logrus.Entry
	name string
}

// New creates a new key/value logger for a component
func New(name string) *Logger {
	return &Logger{
		Entry: NewSimpleLogger(name),
		name:  name,
	}
}

// Wrap adapts an existing logrus entry
func Wrap(entry *logrus.Entry, name string) *Logger {
	return &Logger{Entry: entry, name: name}
}

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	base := logrus.New()
	base.SetOutput(l.Entry.Logger.Out)
	base.SetFormatter(l.Entry.Logger.Formatter)
	base.SetLevel(level.logrus())

	return &Logger{
		Entry: base.WithFields(l.Entry.Data),
		name:  l.name,
	}
}

// With returns a logger carrying additional key/value fields
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		Entry: l.Entry.WithFields(toFields(keysAndValues...)),
		name:  l.name,
	}
}

// Debug logs a debug message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Entry.WithFields(toFields(keysAndValues...)).Debug(msg)
}

// Info logs an info message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Entry.WithFields(toFields(keysAndValues...)).Info(msg)
}

// Warn logs a warning message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Entry.WithFields(toFields(keysAndValues...)).Warn(msg)
}

// Error logs an error message with key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Entry.WithFields(toFields(keysAndValues...)).Error(msg)
}

// toFields converts key-value pairs to logrus.Fields
func toFields(keysAndValues ...interface{}) logrus.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(logrus.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
