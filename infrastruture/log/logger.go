// Package log provides the leveled, colored component loggers used across the service.
package log

import (
	"errors"
	"fmt"
	"io"
	stdlog "log"

	"github.com/beka-birhanu/vinom-caves/config"
)

var ErrNilWriter = errors.New("logger writer is nil")

// Logger prefixes every line with a colored component name and a level tag.
type Logger struct {
	out *stdlog.Logger
}

// New creates a Logger writing to w. The prefix names the component, e.g. "APP".
func New(prefix, color string, w io.Writer) (*Logger, error) {
	if w == nil {
		return nil, ErrNilWriter
	}

	return &Logger{
		out: stdlog.New(w, fmt.Sprintf("%s[%s]%s ", color, prefix, config.ColorReset), stdlog.LstdFlags),
	}, nil
}

// Info logs routine progress.
func (l *Logger) Info(msg string) {
	l.out.Printf("%s[INFO]%s %s", config.LogInfoColor, config.LogColorReset, msg)
}

// Warning logs a recoverable problem.
func (l *Logger) Warning(msg string) {
	l.out.Printf("%s[WARNING]%s %s", config.LogWarningColor, config.LogColorReset, msg)
}

// Error logs a failed operation.
func (l *Logger) Error(msg string) {
	l.out.Printf("%s[ERROR]%s %s", config.LogErrorColor, config.LogColorReset, msg)
}
