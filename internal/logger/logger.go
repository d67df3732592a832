// Package logger builds the application's hclog loggers and keeps a
// package-level default for code that has no logger injected.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Options configures New.
type Options struct {
	Name   string
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

var defaultLogger atomic.Pointer[hclog.InterceptLogger]

func init() {
	l := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:   "music-analysis",
		Level:  hclog.Info,
		Output: os.Stderr,
	})
	defaultLogger.Store(&l)
}

// New creates a root logger. Unknown levels fall back to info.
func New(opts Options) hclog.InterceptLogger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Name == "" {
		opts.Name = "music-analysis"
	}
	return hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:            opts.Name,
		Level:           ParseLevel(opts.Level),
		Output:          opts.Output,
		JSONFormat:      strings.EqualFold(opts.Format, "json"),
		IncludeLocation: false,
	})
}

// ParseLevel maps a level name to an hclog level.
func ParseLevel(level string) hclog.Level {
	l := hclog.LevelFromString(strings.TrimSpace(level))
	if l == hclog.NoLevel {
		return hclog.Info
	}
	return l
}

// SetDefault replaces the package-level logger.
func SetDefault(l hclog.InterceptLogger) {
	if l != nil {
		defaultLogger.Store(&l)
	}
}

// Default returns the package-level logger.
func Default() hclog.InterceptLogger {
	return *defaultLogger.Load()
}

// SetLevel changes the level of the package-level logger and every logger
// derived from it.
func SetLevel(level string) {
	Default().SetLevel(ParseLevel(level))
}

// Named returns a sub-logger of the default logger.
func Named(name string) hclog.Logger {
	return Default().Named(name)
}

func Trace(msg string, args ...interface{}) { Default().Trace(msg, args...) }
func Debug(msg string, args ...interface{}) { Default().Debug(msg, args...) }
func Info(msg string, args ...interface{})  { Default().Info(msg, args...) }
func Warn(msg string, args ...interface{})  { Default().Warn(msg, args...) }
func Error(msg string, args ...interface{}) { Default().Error(msg, args...) }
