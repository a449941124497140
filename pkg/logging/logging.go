// SPDX-License-Identifier: Apache-2.0

// Package logging provides the narrow structured-logging capability
// used across the module. Components take a *Logger explicitly rather
// than reaching for a package-level global, so tests can inject a
// discard logger or assert on captured output.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger wraps charmbracelet/log with the fields this module cares
// about (component name, bus address when relevant).
type Logger struct {
	l *log.Logger
}

// New creates a Logger writing to w at the given level.
func New(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &Logger{l: l}
}

// Default creates a Logger writing to stderr at info level.
func Default() *Logger {
	return New(os.Stderr, log.InfoLevel)
}

// Discard creates a Logger that drops everything, for tests.
func Discard() *Logger {
	return New(io.Discard, log.FatalLevel+1)
}

// With returns a derived Logger carrying the given key/value pairs on
// every subsequent entry.
func (lg *Logger) With(keyvals ...any) *Logger {
	return &Logger{l: lg.l.With(keyvals...)}
}

func (lg *Logger) Debug(msg string, keyvals ...any) { lg.l.Debug(msg, keyvals...) }
func (lg *Logger) Info(msg string, keyvals ...any)  { lg.l.Info(msg, keyvals...) }
func (lg *Logger) Warn(msg string, keyvals ...any)  { lg.l.Warn(msg, keyvals...) }
func (lg *Logger) Error(msg string, keyvals ...any) { lg.l.Error(msg, keyvals...) }

// Printf adapts Logger to printf-style diagnostic hooks (format string
// + args) such as protocol.Engine.Logf and redisbridge.Bridge.Logf.
func (lg *Logger) Printf(format string, args ...any) {
	lg.l.Infof(format, args...)
}
