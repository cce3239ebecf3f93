// Package slog adapts a *slog.Logger to cachekit.Logger.
package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/unkn0wn-root/cachekit"
)

var _ cachekit.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

func New(l *stdslog.Logger) Logger { return Logger{L: l} }

func (s Logger) Debug(msg string, f cachekit.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f cachekit.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f cachekit.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f cachekit.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) With(f cachekit.Fields) cachekit.Logger {
	args := make([]any, 0, len(f))
	for _, a := range attrs(f) {
		args = append(args, a)
	}
	return Logger{L: s.L.With(args...)}
}

func (s Logger) log(level stdslog.Level, msg string, f cachekit.Fields) {
	s.L.LogAttrs(context.Background(), level, msg, attrs(f)...)
}

func attrs(f cachekit.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
