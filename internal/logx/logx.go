// Package logx is the module's one structured logger: a thin wrapper over
// logrus giving every package the same leveled, field-tagged log line
// instead of ad hoc fmt.Printf. Grounded on the pack's arvados-lightning
// anno2vcf.go, which imports logrus under the "log" alias and calls it like
// the standard library's log package; this module keeps that calling
// convention but adds levels and structured fields so -debug can raise
// verbosity without code changes at each call site.
package logx

import (
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetDebug raises the logger to debug level when v is true, matching the
// CLI's -debug flag.
func SetDebug(v bool) {
	if v {
		std.SetLevel(logrus.DebugLevel)
	} else {
		std.SetLevel(logrus.InfoLevel)
	}
}

// Fields is a shorthand for a set of structured log fields.
type Fields = logrus.Fields

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) { std.Infof(format, args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...interface{}) { std.Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }

// WithFields returns an entry carrying the given structured fields, for
// call sites that want more than a formatted message (e.g. indexer
// progress: bytes read, row count).
func WithFields(f Fields) *logrus.Entry { return std.WithFields(f) }
