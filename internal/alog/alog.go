// Package alog is a small leveled logger distinguishing hard errors from
// recoverable anomalies and informational/verbose-only messages, all
// printed to stderr with an elapsed-time prefix.
package alog

import (
	"fmt"
	"os"
	"time"
)

// Logger reports recoverable anomalies (Warn), ordinary progress (Info),
// and informational/verbose-only messages (Debug).
type Logger struct {
	Verbose bool
	start   time.Time
}

// New returns a Logger. When verbose is false, Debug is suppressed.
func New(verbose bool) *Logger {
	return &Logger{Verbose: verbose, start: time.Now()}
}

func (l *Logger) print(level, format string, args ...interface{}) {
	elapsed := time.Since(l.start).Round(time.Millisecond)
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", elapsed, level, msg)
}

// Warn reports a recoverable anomaly: the pipeline continues with
// degraded data.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.print("warn", format, args...)
}

// Info reports ordinary progress.
func (l *Logger) Info(format string, args ...interface{}) {
	l.print("info", format, args...)
}

// Debug reports an informational message, shown only when Verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.print("debug", format, args...)
}
