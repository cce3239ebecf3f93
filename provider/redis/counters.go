package redis

import (
	"context"

	"github.com/unkn0wn-root/cachekit"
)

func (p *Provider) Increment(ctx context.Context, key string) (int64, error) {
	return p.IncrementBy(ctx, key, 1)
}

func (p *Provider) IncrementBy(ctx context.Context, key string, n int64) (int64, error) {
	return do(ctx, p, "IncrementBy", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return 0, err
		}
		return p.rdb.IncrBy(ctx, key, n).Result()
	})
}

func (p *Provider) Decrement(ctx context.Context, key string) (int64, error) {
	return p.DecrementBy(ctx, key, 1)
}

func (p *Provider) DecrementBy(ctx context.Context, key string, n int64) (int64, error) {
	return do(ctx, p, "DecrementBy", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return 0, err
		}
		return p.rdb.DecrBy(ctx, key, n).Result()
	})
}
