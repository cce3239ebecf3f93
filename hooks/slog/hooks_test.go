package sloghook

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRetryIsSampledAndRedacted(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{RetryEvery: 2})

	for i := 1; i <= 4; i++ {
		h.RetryAttempt(i, "Get", "key=secret-user-42", errors.New("timeout"))
	}
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "cachekit.retry"))
	assert.NotContains(t, out, "secret-user-42")
	assert.Contains(t, out, "op=Get")
}

func TestSweepEvents(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})

	h.SweepCompleted("CacheItems", 0)
	assert.Empty(t, buf.String(), "empty sweeps are quiet by default")

	h.SweepCompleted("CacheItems", 3)
	h.SweepFailed("CacheItems", errors.New("deadlock"))
	out := buf.String()
	assert.Contains(t, out, "removed=3")
	assert.Contains(t, out, "cachekit.sweep_failed")
	assert.Contains(t, out, "err=deadlock")
}

func TestCustomRedactor(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{Redact: func(string) string { return "***" }})
	h.ExpirySkipped("user:1", 60)
	assert.Contains(t, buf.String(), "key=***")
}

func TestNilLoggerIsNoop(t *testing.T) {
	h := New(nil, Options{})
	assert.NotPanics(t, func() {
		h.RetryAttempt(1, "Get", "", nil)
		h.SweepFailed("t", nil)
	})
}
