package log

import (
	"io"
	"os"

	"github.com/nanovms/ldemul/types"
)

var defaultLogger *Logger

// Make sure default logger instantiated by default.
func init() {
	defaultLogger = New(os.Stderr)
	defaultLogger.SetWarn(true)
	defaultLogger.SetError(true)
}

// NewFromConfig creates a logger whose levels follow config.RunConfig.
func NewFromConfig(output io.Writer, config *types.Config) *Logger {
	l := New(output)

	if config == nil {
		l.SetWarn(true)
		l.SetError(true)
		return l
	}

	if config.RunConfig.ShowDebug {
		l.SetDebug(true)
		l.SetWarn(true)
		l.SetError(true)
		l.SetInfo(true)
	}

	if config.RunConfig.ShowWarnings {
		l.SetWarn(true)
	}

	if config.RunConfig.ShowErrors {
		l.SetError(true)
	}

	if config.RunConfig.Verbose {
		l.SetInfo(true)
	}

	return l
}

// InitDefault creates default logger for package-level logging access.
func InitDefault(output io.Writer, config *types.Config) {
	defaultLogger = NewFromConfig(output, config)
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

// Info logs info-level message using default logger.
func Info(message string, a ...interface{}) {
	defaultLogger.Infof(message, a...)
}

// Warn logs warning-level message using default logger.
func Warn(message string, a ...interface{}) {
	defaultLogger.Warnf(message, a...)
}

// Errorf logs error-level formatted string message using default logger.
func Errorf(message string, a ...interface{}) {
	defaultLogger.Errorf(message, a...)
}

// Error logs error-level message using default logger.
func Error(err error) {
	defaultLogger.Error(err)
}

// Fatal logs error-level message using default logger then calls os.Exit(1).
func Fatal(message string, a ...interface{}) {
	defaultLogger.SetError(true)
	defaultLogger.Errorf(message, a...)
	os.Exit(1)
}

// Debug logs debug-level message using default logger.
func Debug(message string, a ...interface{}) {
	defaultLogger.Debugf(message, a...)
}
