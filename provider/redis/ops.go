package redis

import (
	"context"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachekit"
)

func (p *Provider) Get(ctx context.Context, key string) (string, bool, error) {
	type res struct {
		v  string
		ok bool
	}
	r, err := do(ctx, p, "Get", keyDesc(key), func(ctx context.Context) (res, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return res{}, err
		}
		v, err := p.rdb.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			return res{}, nil // miss
		}
		if err != nil {
			return res{}, err
		}
		return res{v: v, ok: true}, nil
	})
	return r.v, r.ok, err
}

// Set leaves the TTL tracker without an entry for key, so a later ExpireKey
// always reaches Redis and can slide the expiry set here.
func (p *Provider) Set(ctx context.Context, key, value string, expireInSeconds int, createOrOverwrite bool) (bool, error) {
	return do(ctx, p, "Set", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		if err := cachekit.ValidateExpiration(expireInSeconds); err != nil {
			return false, err
		}
		if createOrOverwrite {
			if err := p.rdb.Set(ctx, key, value, seconds(expireInSeconds)).Err(); err != nil {
				return false, err
			}
			p.ttl.Forget(key)
			return true, nil
		}
		ok, err := p.rdb.SetNX(ctx, key, value, seconds(expireInSeconds)).Result()
		if err != nil {
			return false, err
		}
		if ok {
			p.ttl.Forget(key)
		}
		return ok, nil
	})
}

func (p *Provider) SetIfNotExists(ctx context.Context, key, value string, expireInSeconds int) (bool, error) {
	return p.Set(ctx, key, value, expireInSeconds, false)
}

func (p *Provider) Delete(ctx context.Context, key string) (bool, error) {
	return do(ctx, p, "Delete", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		n, err := p.rdb.Del(ctx, key).Result()
		if err != nil {
			return false, err
		}
		p.ttl.Forget(key)
		return n == 1, nil
	})
}

// DeleteMany pipelines one DEL per distinct key so keys may live in
// different cluster slots.
func (p *Provider) DeleteMany(ctx context.Context, keys []string) (bool, error) {
	return do(ctx, p, "DeleteMany", keysDesc(keys), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKeys(keys); err != nil {
			return false, err
		}
		distinct := cachekit.DistinctKeys(keys)
		cmds := make([]*goredis.IntCmd, len(distinct))
		_, err := p.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
			for i, k := range distinct {
				cmds[i] = pipe.Del(ctx, k)
			}
			return nil
		})
		if err != nil {
			return false, err
		}
		p.ttl.Forget(distinct...)

		var removed int64
		for _, c := range cmds {
			removed += c.Val()
		}
		return removed == int64(len(distinct)), nil
	})
}

// ExpireKey skips the EXPIRE call when this instance already applied the
// same TTL to key and that TTL has not run out. The TTL is recorded only
// when Redis confirms the key exists.
func (p *Provider) ExpireKey(ctx context.Context, key string, expireInSeconds int) (bool, error) {
	return do(ctx, p, "ExpireKey", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		if err := cachekit.ValidateExpiration(expireInSeconds); err != nil {
			return false, err
		}
		if !p.ttl.Needs(key, expireInSeconds) {
			p.hooks.ExpirySkipped(key, expireInSeconds)
			return false, nil
		}
		ok, err := p.rdb.Expire(ctx, key, seconds(expireInSeconds)).Result()
		if err != nil {
			return false, err
		}
		if ok {
			p.ttl.Record(key, expireInSeconds)
		}
		return ok, nil
	})
}

// withExpiry runs mutate and, if the tracker says the container needs a new
// TTL, sends EXPIRE in the same MULTI/EXEC so the two cannot be split.
func (p *Provider) withExpiry(ctx context.Context, key string, expireInSeconds int, mutate func(goredis.Cmdable) goredis.Cmder) error {
	if !p.ttl.Needs(key, expireInSeconds) {
		p.hooks.ExpirySkipped(key, expireInSeconds)
		return mutate(p.rdb).Err()
	}

	var exp *goredis.BoolCmd
	_, err := p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		mutate(pipe)
		exp = pipe.Expire(ctx, key, seconds(expireInSeconds))
		return nil
	})
	if err != nil {
		return err
	}
	if exp.Val() {
		p.ttl.Record(key, expireInSeconds)
	}
	return nil
}

func validateWrite(key string, expireInSeconds int) error {
	if err := cachekit.ValidateKey(key); err != nil {
		return err
	}
	return cachekit.ValidateExpiration(expireInSeconds)
}
