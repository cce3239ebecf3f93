// Package zap adapts a *zap.Logger to cachekit.Logger.
package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachekit"
)

type ZapLogger struct{ L *zap.Logger }

var _ cachekit.Logger = ZapLogger{}

func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l} }

func (z ZapLogger) Debug(msg string, f cachekit.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f cachekit.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f cachekit.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f cachekit.Fields) { z.L.Error(msg, zf(f)...) }

func (z ZapLogger) With(f cachekit.Fields) cachekit.Logger {
	return ZapLogger{L: z.L.With(zf(f)...)}
}

func zf(f cachekit.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
