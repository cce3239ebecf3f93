// Package sloghook logs cachekit.Hooks events to a *slog.Logger.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cachekit"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	RetryEvery      uint64
	ExpirySkipEvery uint64
	// Log successful sweeps that removed nothing. Off by default.
	LogEmptySweeps bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	retryCtr      atomic.Uint64
	expirySkipCtr atomic.Uint64
}

var _ cachekit.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RetryAttempt(attempt int, op, description string, err error) {
	if h.l == nil || !sample(h.opts.RetryEvery, &h.retryCtr) {
		return
	}
	// descriptions carry keys, so they are not logged verbatim
	h.l.Warn("cachekit.retry",
		"attempt", attempt,
		"op", op,
		"desc", h.redact(description),
		"err", err)
}

func (h *Hooks) ExpirySkipped(key string, ttlSeconds int) {
	if h.l == nil || !sample(h.opts.ExpirySkipEvery, &h.expirySkipCtr) {
		return
	}
	h.l.Debug("cachekit.expiry_skipped",
		"key", h.redact(key),
		"ttl_seconds", ttlSeconds)
}

func (h *Hooks) SweepCompleted(table string, removed int64) {
	if h.l == nil || (removed == 0 && !h.opts.LogEmptySweeps) {
		return
	}
	h.l.Info("cachekit.sweep_completed",
		"table", table,
		"removed", removed)
}

func (h *Hooks) SweepFailed(table string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cachekit.sweep_failed",
		"table", table,
		"err", err)
}
