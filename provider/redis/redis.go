// Package redis implements cachekit.Cache on Redis via go-redis.
//
// Every operation maps to native commands. ExpireKey and the collection
// writes consult a per-instance TTL tracker and only send EXPIRE when the
// requested TTL differs from the last one this instance applied.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cachekit"
	"github.com/unkn0wn-root/cachekit/internal/ttltrack"
	"github.com/unkn0wn-root/cachekit/retry"
)

// Name identifies this provider in errors and logs.
const Name = cachekit.ProviderRedis

var ErrNilClient = errors.New("redis provider: nil client")

const trackerCleanupInterval = time.Minute

type Provider struct {
	rdb         goredis.UniversalClient
	closeClient bool

	policy  *retry.Policy
	ttl     ttltrack.Tracker
	ownsTTL bool
	timeout time.Duration

	log   cachekit.Logger
	hooks cachekit.Hooks

	closeOnce sync.Once
	closeErr  error
}

var _ cachekit.Cache = (*Provider)(nil)

type config struct {
	policy      *retry.Policy
	retryOpts   cachekit.RetryOptions
	tracker     ttltrack.Tracker
	maxTracked  int64
	timeout     time.Duration
	closeClient bool
	log         cachekit.Logger
	hooks       cachekit.Hooks
}

type Option func(*config)

// WithPolicy replaces the policy built from RetryOptions. The caller is
// responsible for giving it a classifier, normally IsTransient.
func WithPolicy(p *retry.Policy) Option { return func(c *config) { c.policy = p } }

func WithLogger(l cachekit.Logger) Option { return func(c *config) { c.log = l } }

func WithHooks(h cachekit.Hooks) Option { return func(c *config) { c.hooks = h } }

// WithTracker replaces the default sharded TTL tracker.
// Trackers passed here are not closed by the provider.
func WithTracker(t ttltrack.Tracker) Option { return func(c *config) { c.tracker = t } }

// WithBoundedTracker caps the TTL tracker at maxKeys entries using a
// ristretto-backed tracker owned and closed by the provider. Ignored when
// WithTracker is also given.
func WithBoundedTracker(maxKeys int64) Option { return func(c *config) { c.maxTracked = maxKeys } }

// WithQueryTimeout bounds each attempt of each operation.
func WithQueryTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// WithCloseClient makes Close release the client. Set it only when this
// provider exclusively owns the client.
func WithCloseClient(v bool) Option { return func(c *config) { c.closeClient = v } }

// New dials Redis from options. With AbortOnConnectFail set (in the options
// or the connection string) the server is pinged and a failure aborts
// construction; otherwise connections are established lazily.
func New(ctx context.Context, opts cachekit.RedisOptions, o ...Option) (*Provider, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	rdb := s.newClient()
	defaults := []Option{WithCloseClient(true), withRetryOptions(opts.Retry)}
	if opts.MaxTrackedKeys > 0 {
		defaults = append(defaults, WithBoundedTracker(opts.MaxTrackedKeys))
	}
	o = append(defaults, o...)
	p, err := NewWithClient(rdb, o...)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	if s.abortOnConnectFail {
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = p.Close(ctx)
			return nil, errors.Wrapf(err, "redis: connect to %v", s.client.Addrs)
		}
	}
	if extra := s.ignoredAddrs(); len(extra) > 0 {
		p.log.Warn("redis: only the first endpoint is dialed; set cluster=true or serviceName for multi-node setups",
			cachekit.Fields{"ignored": extra})
	}
	p.log.Info("redis cache provider ready", cachekit.Fields{"addrs": s.client.Addrs, "db": s.client.DB})
	return p, nil
}

func withRetryOptions(r cachekit.RetryOptions) Option {
	return func(c *config) { c.retryOpts = r }
}

// NewWithClient wraps an existing client. The client is left open on Close
// unless WithCloseClient(true) is given.
func NewWithClient(rdb goredis.UniversalClient, o ...Option) (*Provider, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	cfg := config{retryOpts: cachekit.DefaultRetryOptions()}
	for _, fn := range o {
		fn(&cfg)
	}

	p := &Provider{
		rdb:         rdb,
		closeClient: cfg.closeClient,
		timeout:     cfg.timeout,
		log:         cachekit.LoggerOrNop(cfg.log).With(cachekit.Fields{"provider": Name}),
		hooks:       cachekit.HooksOrNop(cfg.hooks),
		policy:      cfg.policy,
		ttl:         cfg.tracker,
	}
	if p.policy == nil {
		pol, err := retry.FromOptions(cfg.retryOpts,
			retry.WithClassifier(IsTransient),
			retry.WithHooks(p.hooks),
			retry.WithLogger(p.log))
		if err != nil {
			return nil, err
		}
		p.policy = pol
	}
	switch {
	case p.ttl != nil:
	case cfg.maxTracked > 0:
		b, err := ttltrack.NewBounded(cfg.maxTracked)
		if err != nil {
			return nil, err
		}
		p.ttl = b
		p.ownsTTL = true
	default:
		p.ttl = ttltrack.NewSharded(trackerCleanupInterval)
		p.ownsTTL = true
	}
	return p, nil
}

// Close stops the TTL tracker and releases the client if owned.
// Safe to call multiple times; repeated calls return the first result.
func (p *Provider) Close(context.Context) error {
	p.closeOnce.Do(func() {
		if p.ownsTTL {
			_ = p.ttl.Close()
		}
		if p.closeClient {
			if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
				p.closeErr = err
			}
		}
	})
	return p.closeErr
}

// do runs fn under the retry policy with the optional per-attempt timeout.
func do[T any](ctx context.Context, p *Provider, op, desc string, fn func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, p.policy, op, desc, func(ctx context.Context) (T, error) {
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		return fn(ctx)
	})
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func keyDesc(key string) string { return "key=" + key }

func keysDesc(keys []string) string { return fmt.Sprintf("keys=%v", keys) }
