// Package logger provides process-wide logging for medterm.
// Messages are written to stderr through zap so that stdout stays free for
// the MCP stdio transport and for command output. Debug and info messages
// appear only in verbose mode; errors are always written.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	json    bool
	output  io.Writer = os.Stderr
	level             = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	sugar             = build()
)

// build assembles the zap logger from the current settings (caller must hold lock
// or be in package init).
func build() *zap.SugaredLogger {
	cfg := zapcore.EncoderConfig{
		LevelKey:       "level",
		MessageKey:     "msg",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var enc zapcore.Encoder
	if json {
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg.ConsoleSeparator = " "
		cfg.EncodeLevel = bracketLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(output), level)
	return zap.New(core).Sugar()
}

// bracketLevelEncoder renders levels as "[DEBUG]".
func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.ErrorLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	sugar = build()
}

// SetJSON switches between console and JSON encoding.
// The MCP HTTP server uses JSON so logs can be shipped.
func SetJSON(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	json = enabled
	sugar = build()
}

// L returns the underlying sugared logger for structured key/value logging.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug logs a formatted message in verbose mode.
func Debug(format string, args ...any) {
	L().Debugf(format, args...)
}

// Section logs a section header in verbose mode.
func Section(name string) {
	L().Debugf("=== %s ===", name)
}

// Info logs a formatted informational message in verbose mode.
func Info(format string, args ...any) {
	L().Infof(format, args...)
}

// Warn logs a formatted warning in verbose mode.
func Warn(format string, args ...any) {
	L().Warnf(format, args...)
}

// Error logs a formatted error. Errors are written regardless of verbosity.
func Error(format string, args ...any) {
	L().Errorf(format, args...)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}
