package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/unkn0wn-root/cachekit"
)

// SQL Server caps a statement at 2100 parameters.
const deleteBatch = 1000

func (p *Provider) Get(ctx context.Context, key string) (string, bool, error) {
	type res struct {
		v  string
		ok bool
	}
	r, err := do(ctx, p, "Get", keyDesc(key), func(ctx context.Context) (res, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return res{}, err
		}
		q, args, err := p.bind(p.d.get, map[string]any{"key": key, "now": p.ts(p.now())})
		if err != nil {
			return res{}, err
		}
		var v sql.NullString
		err = p.db.QueryRowxContext(ctx, q, args...).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			return res{}, nil
		}
		if err != nil {
			return res{}, err
		}
		return res{v: v.String, ok: true}, nil
	})
	return r.v, r.ok, err
}

// Set upserts when createOrOverwrite is true. Otherwise the row is written
// only if no live row holds key; an expired row is replaced in place.
func (p *Provider) Set(ctx context.Context, key, value string, expireInSeconds int, createOrOverwrite bool) (bool, error) {
	return do(ctx, p, "Set", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		if err := cachekit.ValidateExpiration(expireInSeconds); err != nil {
			return false, err
		}
		now := p.now()
		stmt := p.d.upsert
		if !createOrOverwrite {
			stmt = p.d.insertIfAbsent
		}
		q, args, err := p.bind(stmt, map[string]any{
			"key":     key,
			"value":   value,
			"expires": p.ts(now.Add(time.Duration(expireInSeconds) * time.Second)),
			"created": p.ts(now),
			"now":     p.ts(now),
		})
		if err != nil {
			return false, err
		}
		res, err := p.db.ExecContext(ctx, q, args...)
		if err != nil {
			return false, err
		}
		if createOrOverwrite {
			return true, nil
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

func (p *Provider) SetIfNotExists(ctx context.Context, key, value string, expireInSeconds int) (bool, error) {
	return p.Set(ctx, key, value, expireInSeconds, false)
}

// Delete removes the row whether or not it is still live.
func (p *Provider) Delete(ctx context.Context, key string) (bool, error) {
	return do(ctx, p, "Delete", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		q, args, err := p.bind(p.d.deleteOne, map[string]any{"key": key})
		if err != nil {
			return false, err
		}
		res, err := p.db.ExecContext(ctx, q, args...)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	})
}

// DeleteMany reports whether one row was removed per distinct key.
func (p *Provider) DeleteMany(ctx context.Context, keys []string) (bool, error) {
	return do(ctx, p, "DeleteMany", keysDesc(keys), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKeys(keys); err != nil {
			return false, err
		}
		distinct := cachekit.DistinctKeys(keys)

		var removed int64
		for start := 0; start < len(distinct); start += deleteBatch {
			end := min(start+deleteBatch, len(distinct))
			q, args, err := sqlx.In(p.d.deleteMany, distinct[start:end])
			if err != nil {
				return false, errors.Wrap(err, "sql: expand keys")
			}
			res, err := p.db.ExecContext(ctx, p.db.Rebind(q), args...)
			if err != nil {
				return false, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return false, err
			}
			removed += n
		}
		return removed == int64(len(distinct)), nil
	})
}

// ExpireKey moves the expiry of a live row. Expired or missing rows are not
// revived and report false.
func (p *Provider) ExpireKey(ctx context.Context, key string, expireInSeconds int) (bool, error) {
	return do(ctx, p, "ExpireKey", keyDesc(key), func(ctx context.Context) (bool, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return false, err
		}
		if err := cachekit.ValidateExpiration(expireInSeconds); err != nil {
			return false, err
		}
		now := p.now()
		q, args, err := p.bind(p.d.expire, map[string]any{
			"key":     key,
			"expires": p.ts(now.Add(time.Duration(expireInSeconds) * time.Second)),
			"now":     p.ts(now),
		})
		if err != nil {
			return false, err
		}
		res, err := p.db.ExecContext(ctx, q, args...)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	})
}

func (p *Provider) Increment(ctx context.Context, key string) (int64, error) {
	return p.IncrementBy(ctx, key, 1)
}

// IncrementBy adds n to the live value (0 when absent or expired) in one
// statement. A live row keeps its expiry; a new or revived row expires after
// cachekit.DefaultIncrementExpiry.
func (p *Provider) IncrementBy(ctx context.Context, key string, n int64) (int64, error) {
	return do(ctx, p, "IncrementBy", keyDesc(key), func(ctx context.Context) (int64, error) {
		if err := cachekit.ValidateKey(key); err != nil {
			return 0, err
		}
		now := p.now()
		q, args, err := p.bind(p.d.increment, map[string]any{
			"key":            key,
			"delta":          n,
			"now":            p.ts(now),
			"created":        p.ts(now),
			"default_expiry": p.ts(now.Add(cachekit.DefaultIncrementExpiry)),
		})
		if err != nil {
			return 0, err
		}
		var s string
		if err := p.db.QueryRowxContext(ctx, q, args...).Scan(&s); err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "sql: counter %q holds a non-integer value", key)
		}
		return v, nil
	})
}

func (p *Provider) Decrement(ctx context.Context, key string) (int64, error) {
	return p.IncrementBy(ctx, key, -1)
}

func (p *Provider) DecrementBy(ctx context.Context, key string, n int64) (int64, error) {
	return p.IncrementBy(ctx, key, -n)
}
