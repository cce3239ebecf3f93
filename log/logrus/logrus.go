// Package logrus adapts a *logrus.Entry to cachekit.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/cachekit"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ cachekit.Logger = LogrusLogger{}

// New wraps a logger; use LogrusLogger{E: entry} to start from an entry.
func New(l *logrus.Logger) LogrusLogger { return LogrusLogger{E: logrus.NewEntry(l)} }

func (l LogrusLogger) Debug(msg string, f cachekit.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f cachekit.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f cachekit.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f cachekit.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}

func (l LogrusLogger) With(f cachekit.Fields) cachekit.Logger {
	return LogrusLogger{E: l.E.WithFields(logrus.Fields(f))}
}
