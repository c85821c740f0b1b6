// Package log provides the shared logger for marrow, backed by charmbracelet/log.
package log

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the process-wide logger. Tasks and the entity manager log
// through it; task output itself goes through the printer, never here.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           levelFromEnv(),
})

// levelFromEnv honors MARROW_LOG_LEVEL before config is loaded, so early
// bootstrap failures are still debuggable.
func levelFromEnv() log.Level {
	lvl, err := log.ParseLevel(os.Getenv("MARROW_LOG_LEVEL"))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// SetLevel sets the logging level by name. Unknown names are ignored.
func SetLevel(name string) {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		return
	}
	Logger.SetLevel(lvl)
}

// Debug logs a debug message.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// CloseError logs a non-nil error from a deferred close. Close failures on
// read paths are not worth failing a task over, but they should be visible.
func CloseError(resource string, err error) {
	if err != nil {
		Logger.Warn("failed to close resource", "resource", resource, "error", err)
	}
}
