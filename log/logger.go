package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/nanovms/ldemul/constants"
)

// Logger filters and prints linker diagnostics to a destination
type Logger struct {
	output   io.Writer
	prefix   string
	info     bool
	warn     bool
	err      bool
	debug    bool
	warnings int
}

// New returns an instance of Logger
func New(output io.Writer) *Logger {
	return &Logger{output: output, prefix: constants.ProgramName + ": "}
}

// SetInfo activates/deactivates info level, used for the verbose trace
func (l *Logger) SetInfo(value bool) {
	l.info = value
}

// SetWarn activates/deactivates warn level
func (l *Logger) SetWarn(value bool) {
	l.warn = value
}

// SetError activates/deactivates error level
func (l *Logger) SetError(value bool) {
	l.err = value
}

// SetDebug activates/deactivates debug level
func (l *Logger) SetDebug(value bool) {
	l.debug = value
}

// Verbose reports whether the verbose trace is printed
func (l *Logger) Verbose() bool {
	return l.info
}

// Warnings returns how many warnings were raised, printed or not
func (l *Logger) Warnings() int {
	return l.warnings
}

// Logf writes a formatted message to the specified output
func (l *Logger) Logf(format string, a ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format = format + "\n"
	}
	fmt.Fprintf(l.output, format, a...)
}

// Log writes message to the specified output
func (l *Logger) Log(a ...interface{}) {
	fmt.Fprintln(l.output, a...)
}

func (l *Logger) logWithColor(color, kind string, msg string) {
	l.Log(color + l.prefix + kind + strings.TrimSuffix(msg, "\n") + ConsoleColors.Reset())
}

// Info checks info level is activated to write the message
func (l *Logger) Info(a ...interface{}) {
	if l.info {
		l.logWithColor(ConsoleColors.Blue(), "", fmt.Sprintln(a...))
	}
}

// Infof checks info level is activated to write the formatted message
func (l *Logger) Infof(format string, a ...interface{}) {
	if l.info {
		l.logWithColor(ConsoleColors.Blue(), "", fmt.Sprintf(format, a...))
	}
}

// Warn checks warn level is activated to write the message
func (l *Logger) Warn(a ...interface{}) {
	l.warnings++
	if l.warn {
		l.logWithColor(ConsoleColors.Yellow(), "warning: ", fmt.Sprintln(a...))
	}
}

// Warnf checks warn level is activated to write the formatted message
func (l *Logger) Warnf(format string, a ...interface{}) {
	l.warnings++
	if l.warn {
		l.logWithColor(ConsoleColors.Yellow(), "warning: ", fmt.Sprintf(format, a...))
	}
}

// Error checks error level is activated to write error object
func (l *Logger) Error(err error) {
	if l.err {
		l.logWithColor(ConsoleColors.Red(), "error: ", err.Error())
	}
}

// Errorf checks error level is activated to write the formatted message
func (l *Logger) Errorf(format string, a ...interface{}) {
	if l.err {
		l.logWithColor(ConsoleColors.Red(), "error: ", fmt.Sprintf(format, a...))
	}
}

// Debug checks debug level is activated to write the message
func (l *Logger) Debug(a ...interface{}) {
	if l.debug {
		l.logWithColor(ConsoleColors.Cyan(), "", fmt.Sprintln(a...))
	}
}

// Debugf checks debug level is activated to write the message
func (l *Logger) Debugf(format string, a ...interface{}) {
	if l.debug {
		l.logWithColor(ConsoleColors.Cyan(), "", fmt.Sprintf(format, a...))
	}
}
