// Package xlog provides the leveled, prefix-tagged logger used across the
// pipeline. It wraps the standard library logger rather than pulling in a
// structured logging library.
package xlog

import (
	"log"
	"os"
)

// Logger tags every line with a component name and level.
type Logger struct {
	component string
	std       *log.Logger
}

// New creates a Logger that writes to stderr, tagged with component.
func New(component string) *Logger {
	return &Logger{
		component: component,
		std:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf("[INFO] "+l.component+": "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("[WARN] "+l.component+": "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf("[ERROR] "+l.component+": "+format, args...)
}
