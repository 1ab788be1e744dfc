// Package logging provides the optional structured debug trace.
//
// Human-facing progress narration uses internal/color directly; this
// package exists only for the --verbose trace that coexists with it.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// EnableVerbose raises the trace level so Debugf calls are emitted.
func EnableVerbose() { log.SetLevel(logrus.DebugLevel) }

// Debugf emits a structured debug trace line.
func Debugf(format string, args ...any) { log.Debugf(format, args...) }

// Warnf emits a structured warning trace line.
func Warnf(format string, args ...any) { log.Warnf(format, args...) }

// WithFields returns an entry pre-populated with the given fields.
func WithFields(fields logrus.Fields) *logrus.Entry { return log.WithFields(fields) }
