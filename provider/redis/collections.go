package redis

import (
	"context"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachekit"
)

// AddToList appends value and returns the list length. With
// createOrOverwrite=false the value is only appended to an existing list
// (RPUSHX) and 0 is returned when the list is absent.
func (p *Provider) AddToList(ctx context.Context, key, value string, expireInSeconds int, createOrOverwrite bool) (int64, error) {
	return do(ctx, p, "AddToList", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := validateWrite(key, expireInSeconds); err != nil {
			return 0, err
		}
		var n *goredis.IntCmd
		err := p.withExpiry(ctx, key, expireInSeconds, func(c goredis.Cmdable) goredis.Cmder {
			if createOrOverwrite {
				n = c.RPush(ctx, key, value)
			} else {
				n = c.RPushX(ctx, key, value)
			}
			return n
		})
		if err != nil {
			return 0, err
		}
		return n.Val(), nil
	})
}

func (p *Provider) GetList(ctx context.Context, key string) ([]string, error) {
	return do(ctx, p, "GetList", keyDesc(key), func(ctx context.Context) ([]string, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return nil, err
		}
		v, err := p.rdb.LRange(ctx, key, 0, -1).Result()
		return orEmpty(v), err
	})
}

// RemoveFromList removes every occurrence of value and returns how many were removed.
// Redis drops a container once its last element goes, so any removal
// forgets the tracked TTL and the next add sends EXPIRE again.
func (p *Provider) RemoveFromList(ctx context.Context, key, value string) (int64, error) {
	return do(ctx, p, "RemoveFromList", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return 0, err
		}
		n, err := p.rdb.LRem(ctx, key, 0, value).Result()
		if n > 0 {
			p.ttl.Forget(key)
		}
		return n, err
	})
}

func (p *Provider) LengthOfList(ctx context.Context, key string) (int64, error) {
	return do(ctx, p, "LengthOfList", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return 0, err
		}
		return p.rdb.LLen(ctx, key).Result()
	})
}

// AddToSet reports whether value was newly added.
func (p *Provider) AddToSet(ctx context.Context, key, value string, expireInSeconds int) (bool, error) {
	return do(ctx, p, "AddToSet", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := validateWrite(key, expireInSeconds); err != nil {
			return false, err
		}
		var n *goredis.IntCmd
		err := p.withExpiry(ctx, key, expireInSeconds, func(c goredis.Cmdable) goredis.Cmder {
			n = c.SAdd(ctx, key, value)
			return n
		})
		if err != nil {
			return false, err
		}
		return n.Val() > 0, nil
	})
}

func (p *Provider) GetSet(ctx context.Context, key string) ([]string, error) {
	return do(ctx, p, "GetSet", keyDesc(key), func(ctx context.Context) ([]string, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return nil, err
		}
		v, err := p.rdb.SMembers(ctx, key).Result()
		return orEmpty(v), err
	})
}

func (p *Provider) RemoveFromSet(ctx context.Context, key, value string) (bool, error) {
	return do(ctx, p, "RemoveFromSet", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		n, err := p.rdb.SRem(ctx, key, value).Result()
		if n > 0 {
			p.ttl.Forget(key)
		}
		return n > 0, err
	})
}

func (p *Provider) LengthOfSet(ctx context.Context, key string) (int64, error) {
	return do(ctx, p, "LengthOfSet", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return 0, err
		}
		return p.rdb.SCard(ctx, key).Result()
	})
}

// AddToHash writes field. It reports true when the field was created; with
// createOrOverwrite=false an existing field is left alone (HSETNX).
func (p *Provider) AddToHash(ctx context.Context, key, field, value string, expireInSeconds int, createOrOverwrite bool) (bool, error) {
	return do(ctx, p, "AddToHash", keyDesc(key)+" field="+field, func(ctx context.Context) (bool, error) {
		if err := validateWrite(key, expireInSeconds); err != nil {
			return false, err
		}
		if field == "" {
			return false, cachekit.InvalidArgument("hash field must not be empty")
		}
		var created func() bool
		err := p.withExpiry(ctx, key, expireInSeconds, func(c goredis.Cmdable) goredis.Cmder {
			if createOrOverwrite {
				cmd := c.HSet(ctx, key, field, value)
				created = func() bool { return cmd.Val() > 0 }
				return cmd
			}
			cmd := c.HSetNX(ctx, key, field, value)
			created = cmd.Val
			return cmd
		})
		if err != nil {
			return false, err
		}
		return created(), nil
	})
}

func (p *Provider) GetHash(ctx context.Context, key, field string) (string, bool, error) {
	type res struct {
		v  string
		ok bool
	}
	r, err := do(ctx, p, "GetHash", keyDesc(key)+" field="+field, func(ctx context.Context) (res, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return res{}, err
		}
		v, err := p.rdb.HGet(ctx, key, field).Result()
		if errors.Is(err, goredis.Nil) {
			return res{}, nil
		}
		if err != nil {
			return res{}, err
		}
		return res{v: v, ok: true}, nil
	})
	return r.v, r.ok, err
}

// GetHashAll returns an empty, non-nil map when the hash does not exist.
func (p *Provider) GetHashAll(ctx context.Context, key string) (map[string]string, error) {
	return do(ctx, p, "GetHashAll", keyDesc(key), func(ctx context.Context) (map[string]string, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return nil, err
		}
		m, err := p.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if m == nil {
			m = map[string]string{}
		}
		return m, nil
	})
}

func (p *Provider) RemoveFromHash(ctx context.Context, key, field string) (bool, error) {
	return do(ctx, p, "RemoveFromHash", keyDesc(key)+" field="+field, func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		n, err := p.rdb.HDel(ctx, key, field).Result()
		if n > 0 {
			p.ttl.Forget(key)
		}
		return n > 0, err
	})
}

func (p *Provider) LengthOfHash(ctx context.Context, key string) (int64, error) {
	return do(ctx, p, "LengthOfHash", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return 0, err
		}
		return p.rdb.HLen(ctx, key).Result()
	})
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
