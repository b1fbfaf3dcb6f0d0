package logging

import (
	"fmt"
	"os"
	"strings"
)

// Logger writes human-facing status lines to stderr. Anything that could
// contain a secret or a raw server response must go through Debug, which is
// silent unless the user asked for it.
type Logger struct {
	debug   bool
	noColor bool
}

// New creates a logger. debug enables the Debug channel, noColor strips
// ANSI escapes for non-terminal output.
func New(debug, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		noColor: noColor,
	}
}

// DebugEnabled reports whether Debug output is visible.
func (l *Logger) DebugEnabled() bool {
	return l.debug
}

// Info logs a status message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args...)
}

// Debug logs a verbose message. Response bodies and other failure detail are
// only ever emitted here.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args...)
}

func (l *Logger) emit(prefix, plainPrefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor {
		fmt.Fprintf(os.Stderr, "%s %s\n", plainPrefix, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", prefix, msg)
}

// Secret wraps a sensitive value so that accidental formatting never prints
// it. Both %s and %#v render as [REDACTED].
type Secret string

func (s Secret) String() string {
	return "[REDACTED]"
}

func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact removes every occurrence of the given secrets from s. Values of
// three characters or fewer are left alone to avoid shredding ordinary text.
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if len(secret) > 3 {
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
