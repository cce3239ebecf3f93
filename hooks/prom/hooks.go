// Package promhook exports cachekit.Hooks events as Prometheus counters.
package promhook

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cachekit"
)

type Hooks struct {
	retries       *prometheus.CounterVec
	expirySkipped prometheus.Counter
	sweepRemoved  *prometheus.CounterVec
	sweepRuns     *prometheus.CounterVec
	sweepFailures *prometheus.CounterVec
}

var _ cachekit.Hooks = (*Hooks)(nil)

// New creates the counters under namespace and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	h := &Hooks{
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_retries_total",
			Help:      "Cache operations retried after a transient backend error.",
		}, []string{"op"}),
		expirySkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_expiry_skipped_total",
			Help:      "EXPIRE calls skipped because the TTL was already applied.",
		}),
		sweepRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sweep_removed_rows_total",
			Help:      "Expired rows deleted by the relational sweeper.",
		}, []string{"table"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sweep_runs_total",
			Help:      "Completed relational sweeps.",
		}, []string{"table"}),
		sweepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sweep_failures_total",
			Help:      "Relational sweeps that failed.",
		}, []string{"table"}),
	}
	for _, c := range []prometheus.Collector{h.retries, h.expirySkipped, h.sweepRemoved, h.sweepRuns, h.sweepFailures} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "promhook: register")
		}
	}
	return h, nil
}

func (h *Hooks) RetryAttempt(_ int, op, _ string, _ error) { h.retries.WithLabelValues(op).Inc() }
func (h *Hooks) ExpirySkipped(string, int)                 { h.expirySkipped.Inc() }

func (h *Hooks) SweepCompleted(table string, removed int64) {
	h.sweepRuns.WithLabelValues(table).Inc()
	h.sweepRemoved.WithLabelValues(table).Add(float64(removed))
}

func (h *Hooks) SweepFailed(table string, _ error) { h.sweepFailures.WithLabelValues(table).Inc() }
