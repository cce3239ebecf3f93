// Package asynchook moves cachekit.Hooks calls off the calling goroutine.
//
// usage:
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{RetryEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := provider.Open(ctx, opts, provider.WithHooks(hooks))
//
// Events are dropped when the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cachekit"
)

type Hooks struct {
	inner   cachekit.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ cachekit.Hooks = (*Hooks)(nil)

func New(inner cachekit.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: cachekit.HooksOrNop(inner), q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers.
// Hooks must not be called after Close.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) RetryAttempt(attempt int, op, desc string, err error) {
	h.try(func() { h.inner.RetryAttempt(attempt, op, desc, err) })
}
func (h *Hooks) ExpirySkipped(k string, ttl int) { h.try(func() { h.inner.ExpirySkipped(k, ttl) }) }
func (h *Hooks) SweepCompleted(table string, n int64) {
	h.try(func() { h.inner.SweepCompleted(table, n) })
}
func (h *Hooks) SweepFailed(table string, err error) {
	h.try(func() { h.inner.SweepFailed(table, err) })
}
