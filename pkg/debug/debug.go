// Package debug provides the process logger and conditional debug logging
// for trustmap.
//
// Debug logging is enabled by setting the TRUSTMAP_DEBUG environment variable:
//
//	TRUSTMAP_DEBUG=1 trustmap export -o graph.svg
//
// When enabled, the logger runs at debug level and debug helpers write
// through it. When disabled (default), the debug helpers are no-ops and only
// info-and-above structured logs are emitted.
//
// Usage:
//
//	import "github.com/vanderheijden86/trustmap/pkg/debug"
//
//	func myFunc() {
//	    debug.Log("processing %d nodes", count)
//	    debug.L().Info("loaded snapshot", zap.Int("nodes", count))
//	}
package debug

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  = zap.NewNop()
)

func init() {
	if os.Getenv("TRUSTMAP_DEBUG") != "" {
		SetEnabled(true)
	}
}

// L returns the process logger. It is a no-op logger until Init or
// SetEnabled(true) is called.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init builds the process logger. Logs go to stderr so they never mix with
// command output or the TUI on stdout.
func Init(level string) error {
	return InitFile(level, "stderr")
}

// InitFile is Init with logs appended to path instead of stderr. The TUI
// uses it so log lines never land on the alternate screen.
func InitFile(level, path string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.Set(level); err != nil {
			return err
		}
	}
	mu.RLock()
	debugOn := enabled
	mu.RUnlock()
	if debugOn {
		lvl = zapcore.DebugLevel
	}
	l, err := build(lvl, path)
	if err != nil {
		return err
	}
	Replace(l)
	return nil
}

// Replace swaps the process logger. Tests use it with zaptest/observer.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

func build(lvl zapcore.Level, out string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{out}
	return cfg.Build()
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging. Enabling it
// builds a debug-level logger if the current one is a no-op.
func SetEnabled(e bool) {
	mu.Lock()
	enabled = e
	needLogger := e && !logger.Core().Enabled(zapcore.DebugLevel)
	mu.Unlock()
	if needLogger {
		if l, err := build(zapcore.DebugLevel, "stderr"); err == nil {
			Replace(l)
		}
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	L().Sugar().Debugf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	L().Debug("timing", zap.String("op", name), zap.Duration("took", d))
}

// LogEnterExit logs function entry and exit with timing.
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	}
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	L().Debug("enter", zap.String("fn", name))
	start := time.Now()
	return func() {
		L().Debug("exit", zap.String("fn", name), zap.Duration("took", time.Since(start)))
	}
}

// Trace is an alias for LogEnterExit for convenience.
var Trace = LogEnterExit

// Sync flushes buffered log entries. Call it before the process exits.
func Sync() {
	_ = L().Sync()
}
