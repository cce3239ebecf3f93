// Package sqlstore implements cachekit.Cache on a relational table.
//
// The engine has no native TTLs, counters or set-once writes, so each is
// emulated with a single conditional statement: rows whose ExpiresAt has
// passed are treated as absent by every read and write, and a background
// sweep deletes them physically. Lists, sets and hashes are not supported.
//
// SQL Server (go-mssqldb), PostgreSQL (lib/pq) and SQLite (modernc) are
// supported. The table is never created automatically; see CreateTableScript.
package sqlstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	// drivers
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/cachekit"
	"github.com/unkn0wn-root/cachekit/retry"
)

// Name identifies this provider in errors and logs.
const Name = cachekit.ProviderSQL

type Provider struct {
	db     *sqlx.DB
	ownsDB bool
	d      dialect
	schema string

	policy  *retry.Policy
	now     func() time.Time
	timeout time.Duration

	log   cachekit.Logger
	hooks cachekit.Hooks

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

var _ cachekit.Cache = (*Provider)(nil)

type config struct {
	policy          *retry.Policy
	now             func() time.Time
	timeout         time.Duration
	cleanupInterval time.Duration
	log             cachekit.Logger
	hooks           cachekit.Hooks
}

type Option func(*config)

// WithPolicy replaces the policy built from SQLOptions.Retry. The caller is
// responsible for giving it a classifier, normally IsTransient.
func WithPolicy(p *retry.Policy) Option { return func(c *config) { c.policy = p } }

func WithLogger(l cachekit.Logger) Option { return func(c *config) { c.log = l } }

func WithHooks(h cachekit.Hooks) Option { return func(c *config) { c.hooks = h } }

// WithClock sets the time source that decides row liveness. Defaults to time.Now.
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

// WithCleanupInterval overrides CleanupIntervalMinutes. d <= 0 disables the sweeper.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *config) { c.cleanupInterval = d }
}

// WithQueryTimeout overrides QueryTimeoutSeconds; it bounds each attempt.
func WithQueryTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// New opens a connection pool for opts.Driver and verifies the cache table.
func New(ctx context.Context, opts cachekit.SQLOptions, o ...Option) (*Provider, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.ConnectionString == "" {
		return nil, cachekit.InvalidArgument("sql: connection string must be set")
	}
	d, err := newDialect(opts)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(d.driver, opts.ConnectionString)
	if err != nil {
		return nil, errors.Wrapf(err, "sql: open %s", d.driver)
	}
	p, err := newProvider(ctx, db, d, opts, o)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	p.ownsDB = true
	return p, nil
}

// NewWithDB uses an existing handle. opts.Driver selects the SQL dialect;
// ConnectionString is ignored. The handle is not closed by Close.
func NewWithDB(ctx context.Context, db *sqlx.DB, opts cachekit.SQLOptions, o ...Option) (*Provider, error) {
	if db == nil {
		return nil, cachekit.InvalidArgument("sql: nil db")
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	d, err := newDialect(opts)
	if err != nil {
		return nil, err
	}
	return newProvider(ctx, db, d, opts, o)
}

func newProvider(ctx context.Context, db *sqlx.DB, d dialect, opts cachekit.SQLOptions, o []Option) (*Provider, error) {
	cfg := config{
		now:             time.Now,
		timeout:         opts.QueryTimeout(),
		cleanupInterval: opts.CleanupInterval(),
	}
	for _, fn := range o {
		fn(&cfg)
	}

	log := cachekit.LoggerOrNop(cfg.log).With(cachekit.Fields{
		"provider": Name,
		"driver":   d.name,
		"table":    d.tableName,
	})
	p := &Provider{
		db:      db,
		d:       d,
		schema:  opts.SchemaName,
		policy:  cfg.policy,
		now:     cfg.now,
		timeout: cfg.timeout,
		log:     log,
		hooks:   cachekit.HooksOrNop(cfg.hooks),
	}
	if p.policy == nil {
		pol, err := retry.FromOptions(opts.Retry,
			retry.WithClassifier(IsTransient),
			retry.WithHooks(p.hooks),
			retry.WithLogger(p.log))
		if err != nil {
			return nil, err
		}
		p.policy = pol
	}

	if err := p.verifyTable(ctx); err != nil {
		p.log.Error("cache table check failed", cachekit.Fields{"err": err.Error()})
		return nil, err
	}

	if cfg.cleanupInterval > 0 {
		p.startSweeper(cfg.cleanupInterval)
	}
	p.log.Info("sql cache provider ready", cachekit.Fields{"cleanup_interval": cfg.cleanupInterval.String()})
	return p, nil
}

// Close stops the sweeper, waits for it to exit and closes the pool if owned.
// Safe to call multiple times; repeated calls return the first result.
func (p *Provider) Close(context.Context) error {
	p.closeOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
		if p.ownsDB {
			p.closeErr = p.db.Close()
		}
	})
	return p.closeErr
}

// bind expands named parameters and rebinds placeholders for the driver.
func (p *Provider) bind(query string, arg map[string]any) (string, []any, error) {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return "", nil, errors.Wrap(err, "sql: bind")
	}
	return p.db.Rebind(q), args, nil
}

func (p *Provider) ts(t time.Time) any { return p.d.timeArg(t) }

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

func keyDesc(key string) string { return "key=" + key }

func keysDesc(keys []string) string { return fmt.Sprintf("keys=%v", keys) }
