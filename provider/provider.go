// Package provider selects and builds a cachekit.Cache from CacheOptions.
//
// It is the only package that imports every backend; applications that want
// a single backend can import provider/redis or provider/sqlstore directly.
package provider

import (
	"context"
	"strings"

	"github.com/unkn0wn-root/cachekit"
	"github.com/unkn0wn-root/cachekit/provider/redis"
	"github.com/unkn0wn-root/cachekit/provider/sqlstore"
)

type config struct {
	log   cachekit.Logger
	hooks cachekit.Hooks
}

type Option func(*config)

func WithLogger(l cachekit.Logger) Option { return func(c *config) { c.log = l } }

func WithHooks(h cachekit.Hooks) Option { return func(c *config) { c.hooks = h } }

// Open builds the provider named by opts.DefaultProvider:
//
//	"" or "redis"                     -> provider/redis with opts.Redis
//	"sqlserver", "postgres", "sqlite" -> provider/sqlstore with that driver
//	"sql"                             -> provider/sqlstore with opts.SQL.Driver
//
// Any other name is an ErrInvalidArgument.
func Open(ctx context.Context, opts cachekit.CacheOptions, o ...Option) (cachekit.Cache, error) {
	var cfg config
	for _, fn := range o {
		fn(&cfg)
	}

	name := strings.ToLower(strings.TrimSpace(opts.DefaultProvider))
	switch name {
	case "", cachekit.ProviderRedis:
		p, err := redis.New(ctx, opts.Redis,
			redis.WithLogger(cfg.log),
			redis.WithHooks(cfg.hooks))
		if err != nil {
			return nil, err
		}
		return p, nil

	case cachekit.ProviderSQLServer, cachekit.ProviderPostgres, cachekit.ProviderSQLite, cachekit.ProviderSQL:
		sqlOpts := opts.SQL
		if name != cachekit.ProviderSQL {
			sqlOpts.Driver = name
		}
		p, err := sqlstore.New(ctx, sqlOpts,
			sqlstore.WithLogger(cfg.log),
			sqlstore.WithHooks(cfg.hooks))
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, cachekit.InvalidArgument("unknown cache provider %q", opts.DefaultProvider)
}
