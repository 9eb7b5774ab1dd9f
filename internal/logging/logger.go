// Package logging provides structured logging for Inkwell.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is a map of structured log context.
type Fields = logrus.Fields

var (
	global *logrus.Logger
	once   sync.Once
)

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(out io.Writer, level string) {
	once.Do(func() {
		l := logrus.New()
		l.SetOutput(out)
		l.SetFormatter(&logrus.JSONFormatter{})
		if lv, err := logrus.ParseLevel(level); err == nil {
			l.SetLevel(lv)
		} else {
			l.SetLevel(logrus.InfoLevel)
		}
		global = l
	})
}

// Get returns the global logger instance.
func Get() *logrus.Logger {
	if global == nil {
		Init(os.Stderr, "info")
	}
	return global
}

// Debug logs a debug message.
func Debug(message string, fields ...Fields) {
	Get().WithFields(merge(fields)).Debug(message)
}

// Info logs an info message.
func Info(message string, fields ...Fields) {
	Get().WithFields(merge(fields)).Info(message)
}

// Warn logs a warning message.
func Warn(message string, fields ...Fields) {
	Get().WithFields(merge(fields)).Warn(message)
}

// Error logs an error message.
func Error(message string, err error, fields ...Fields) {
	e := Get().WithFields(merge(fields))
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(message)
}

// merge flattens multiple field maps into one.
func merge(fields []Fields) Fields {
	if len(fields) == 0 {
		return nil
	}
	if len(fields) == 1 {
		return fields[0]
	}
	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}
