package sqlstore

import (
	"context"
	"time"

	"github.com/unkn0wn-root/cachekit"
)

func (p *Provider) startSweeper(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				p.sweepOnce(ctx)
			}
		}
	}()
}

// sweepOnce never returns an error: failures go to the log and SweepFailed.
func (p *Provider) sweepOnce(ctx context.Context) {
	n, err := p.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return // shutting down
		}
		p.log.Error("expired row sweep failed", cachekit.Fields{"err": err.Error()})
		p.hooks.SweepFailed(p.d.tableName, err)
		return
	}
	if n > 0 {
		p.log.Debug("expired rows swept", cachekit.Fields{"removed": n})
	}
	p.hooks.SweepCompleted(p.d.tableName, n)
}

// Sweep deletes every expired row now and returns how many were removed.
// The background sweeper calls it on each tick. Like every operation it is
// retried and each attempt is bounded by the query timeout.
func (p *Provider) Sweep(ctx context.Context) (int64, error) {
	return do(ctx, p, "Sweep", "table="+p.d.tableName, func(ctx context.Context) (int64, error) {
		q, args, err := p.bind(p.d.sweep, map[string]any{"now": p.ts(p.now())})
		if err != nil {
			return 0, err
		}
		res, err := p.db.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
}
