package redis

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cachekit"
	"github.com/unkn0wn-root/cachekit/internal/ttltrack"
	"github.com/unkn0wn-root/cachekit/retry"
)

// cmdCounter counts commands by name, including those sent in pipelines
// and transactions.
type cmdCounter struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *cmdCounter) count(cmds ...goredis.Cmder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cmd := range cmds {
		c.n[cmd.Name()]++
	}
}

func (c *cmdCounter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

func (c *cmdCounter) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (c *cmdCounter) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		c.count(cmd)
		return next(ctx, cmd)
	}
}

func (c *cmdCounter) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		c.count(cmds...)
		return next(ctx, cmds)
	}
}

type retryHooks struct {
	cachekit.NopHooks
	retries atomic.Int32
	skipped atomic.Int32
}

func (h *retryHooks) RetryAttempt(int, string, string, error) { h.retries.Add(1) }
func (h *retryHooks) ExpirySkipped(string, int)               { h.skipped.Add(1) }

type fixture struct {
	mr    *miniredis.Miniredis
	p     *Provider
	cmds  *cmdCounter
	hooks *retryHooks
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	cmds := &cmdCounter{n: map[string]int{}}
	rdb.AddHook(cmds)

	hooks := &retryHooks{}
	pol, err := retry.New(2, 1,
		retry.WithClassifier(IsTransient),
		retry.WithDelayUnit(time.Millisecond),
		retry.WithHooks(hooks))
	require.NoError(t, err)

	p, err := NewWithClient(rdb, WithPolicy(pol), WithHooks(hooks), WithCloseClient(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return &fixture{mr: mr, p: p, cmds: cmds, hooks: hooks}
}

func TestSetGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.p.Set(ctx, "k", "v", 60, true)
	require.NoError(t, err)
	assert.True(t, ok)

	v, found, err := f.p.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
	assert.Equal(t, 60*time.Second, f.mr.TTL("k"))
}

func TestGetMissingAndExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, found, err := f.p.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = f.p.Set(ctx, "short", "v", 1, true)
	require.NoError(t, err)
	f.mr.FastForward(2 * time.Second)

	_, found, err = f.p.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetIfNotExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.p.SetIfNotExists(ctx, "k", "first", 60)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.p.SetIfNotExists(ctx, "k", "second", 60)
	require.NoError(t, err)
	assert.False(t, ok)

	v, _, err := f.p.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	f.mr.FastForward(61 * time.Second)
	ok, err = f.p.Set(ctx, "k", "third", 60, false)
	require.NoError(t, err)
	assert.True(t, ok, "expired key counts as absent")
}

func TestValidationIsNotRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.p.Set(ctx, "", "v", 60, true)
	assert.True(t, cachekit.IsInvalidArgument(err))

	_, err = f.p.Set(ctx, "k", "v", 0, true)
	assert.True(t, cachekit.IsInvalidArgument(err))

	_, err = f.p.ExpireKey(ctx, "k", -1)
	assert.True(t, cachekit.IsInvalidArgument(err))

	_, err = f.p.DeleteMany(ctx, nil)
	assert.True(t, cachekit.IsInvalidArgument(err))

	assert.Zero(t, f.hooks.retries.Load())
	assert.Zero(t, f.cmds.get("set"))
}

func TestCounterScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.p.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.p.IncrementBy(ctx, "counter", 5)
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)

	n, err = f.p.Decrement(ctx, "counter")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	n, err = f.p.IncrementBy(ctx, "counter", 42)
	require.NoError(t, err)
	n, err = f.p.DecrementBy(ctx, "counter", 42)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestDeleteManyPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mr.Set("a", "1"))
	require.NoError(t, f.mr.Set("b", "2"))

	ok, err := f.p.DeleteMany(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.mr.Exists("a"))
	assert.False(t, f.mr.Exists("b"))

	require.NoError(t, f.mr.Set("c", "3"))
	ok, err = f.p.DeleteMany(ctx, []string{"c", "c"})
	require.NoError(t, err)
	assert.True(t, ok, "duplicates count once")

	ok, err = f.p.Delete(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpireKeySkipsRepeatedTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mr.Set("k", "v"))

	ok, err := f.p.ExpireKey(ctx, "k", 60)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.cmds.get("expire"))

	ok, err = f.p.ExpireKey(ctx, "k", 60)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, f.cmds.get("expire"), "same ttl must not reach redis")
	assert.EqualValues(t, 1, f.hooks.skipped.Load())

	ok, err = f.p.ExpireKey(ctx, "k", 30)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.cmds.get("expire"))
	assert.Equal(t, 30*time.Second, f.mr.TTL("k"))
}

func TestExpireKeyOnMissingKeyIsNotTracked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.p.ExpireKey(ctx, "ghost", 60)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.mr.Set("ghost", "v"))
	ok, err = f.p.ExpireKey(ctx, "ghost", 60)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.cmds.get("expire"))
}

func TestDeleteForgetsTrackedTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.p.AddToSet(ctx, "s", "a", 60)
	require.NoError(t, err)
	_, err = f.p.Delete(ctx, "s")
	require.NoError(t, err)

	_, err = f.p.AddToSet(ctx, "s", "a", 60)
	require.NoError(t, err)
	assert.Equal(t, 2, f.cmds.get("expire"))
	assert.Equal(t, 60*time.Second, f.mr.TTL("s"))
}

func TestListOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.p.GetList(ctx, "list")
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Empty(t, l)

	n, err := f.p.AddToList(ctx, "list", "a", 60, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "RPUSHX does not create")
	assert.False(t, f.mr.Exists("list"))

	for _, v := range []string{"a", "b", "a"} {
		_, err = f.p.AddToList(ctx, "list", v, 60, true)
		require.NoError(t, err)
	}
	assert.Equal(t, 60*time.Second, f.mr.TTL("list"))
	// one EXPIRE for the failed RPUSHX (nothing recorded), one for the first RPUSH
	assert.Equal(t, 2, f.cmds.get("expire"))

	n, err = f.p.AddToList(ctx, "list", "c", 60, false)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	l, err = f.p.GetList(ctx, "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a", "c"}, l)

	removed, err := f.p.RemoveFromList(ctx, "list", "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	n, err = f.p.LengthOfList(ctx, "list")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSetOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.p.GetSet(ctx, "set")
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Empty(t, s)

	added, err := f.p.AddToSet(ctx, "set", "x", 30)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = f.p.AddToSet(ctx, "set", "x", 30)
	require.NoError(t, err)
	assert.False(t, added)
	_, err = f.p.AddToSet(ctx, "set", "y", 30)
	require.NoError(t, err)

	s, err = f.p.GetSet(ctx, "set")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, s)

	n, err := f.p.LengthOfSet(ctx, "set")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ok, err := f.p.RemoveFromSet(ctx, "set", "x")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.p.RemoveFromSet(ctx, "set", "x")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, f.mr.TTL("set"))
}

func TestHashOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.p.GetHashAll(ctx, "h")
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Empty(t, m)

	created, err := f.p.AddToHash(ctx, "h", "f1", "v1", 60, true)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.p.AddToHash(ctx, "h", "f1", "v2", 60, true)
	require.NoError(t, err)
	assert.False(t, created, "overwrite of an existing field")

	created, err = f.p.AddToHash(ctx, "h", "f1", "v3", 60, false)
	require.NoError(t, err)
	assert.False(t, created)

	v, found, err := f.p.GetHash(ctx, "h", "f1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", v)

	_, found, err = f.p.GetHash(ctx, "h", "nope")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = f.p.AddToHash(ctx, "h", "f2", "w", 60, false)
	require.NoError(t, err)

	m, err = f.p.GetHashAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v2", "f2": "w"}, m)

	n, err := f.p.LengthOfHash(ctx, "h")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ok, err := f.p.RemoveFromHash(ctx, "h", "f1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.cmds.get("expire"))
}

func TestServerErrorsAreRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mr.SetError("LOADING Redis is loading the dataset in memory")
	_, _, err := f.p.Get(ctx, "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, retry.ErrExhausted))
	assert.EqualValues(t, 2, f.hooks.retries.Load())

	f.mr.SetError("")
	_, _, err = f.p.Get(ctx, "k")
	require.NoError(t, err)
}

func TestWrongTypeIsNotRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mr.Set("str", "v"))

	_, err := f.p.AddToList(ctx, "str", "x", 60, true)
	require.Error(t, err)
	assert.False(t, errors.Is(err, retry.ErrExhausted))
	assert.Zero(t, f.hooks.retries.Load())
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(goredis.Nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(&net.OpError{Op: "read", Err: timeoutErr{}}))
	assert.False(t, IsTransient(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	assert.False(t, IsTransient(errors.New("some client bug")))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestNewFromConnectionString(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	p, err := New(ctx, cachekit.RedisOptions{
		ConnectionString:   mr.Addr() + ",abortConnect=true",
		AbortOnConnectFail: false,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	_, err = p.Set(ctx, "k", "v", 10, true)
	require.NoError(t, err)
	assert.True(t, mr.Exists("k"))
}

func TestNewAbortsWhenUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New(context.Background(), cachekit.RedisOptions{
		ConnectionString:   "redis://" + addr,
		AbortOnConnectFail: true,
	})
	assert.Error(t, err)
}

func TestNewRequiresConnectionInfo(t *testing.T) {
	_, err := New(context.Background(), cachekit.RedisOptions{})
	assert.True(t, cachekit.IsInvalidArgument(err))

	_, err = NewWithClient(nil)
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.p.Close(ctx))
	require.NoError(t, f.p.Close(ctx))
}

func TestEmptiedContainerGetsExpiryAgain(t *testing.T) {
	cases := []struct {
		name   string
		add    func(*Provider) error
		remove func(*Provider) error
	}{
		{
			name: "list",
			add: func(p *Provider) error {
				_, err := p.AddToList(context.Background(), "c", "a", 60, true)
				return err
			},
			remove: func(p *Provider) error {
				_, err := p.RemoveFromList(context.Background(), "c", "a")
				return err
			},
		},
		{
			name: "set",
			add: func(p *Provider) error {
				_, err := p.AddToSet(context.Background(), "c", "a", 60)
				return err
			},
			remove: func(p *Provider) error {
				_, err := p.RemoveFromSet(context.Background(), "c", "a")
				return err
			},
		},
		{
			name: "hash",
			add: func(p *Provider) error {
				_, err := p.AddToHash(context.Background(), "c", "f", "a", 60, true)
				return err
			},
			remove: func(p *Provider) error {
				_, err := p.RemoveFromHash(context.Background(), "c", "f")
				return err
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			require.NoError(t, tc.add(f.p))
			require.NoError(t, tc.remove(f.p))
			require.False(t, f.mr.Exists("c"), "redis drops the emptied container")

			require.NoError(t, tc.add(f.p))
			assert.Equal(t, 60*time.Second, f.mr.TTL("c"))
			assert.Equal(t, 2, f.cmds.get("expire"))

			f.mr.FastForward(2 * time.Minute)
			assert.False(t, f.mr.Exists("c"))
		})
	}
}

func TestExpireKeyAfterSetSlidesExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.p.Set(ctx, "k", "v", 60, true)
	require.NoError(t, err)
	f.mr.FastForward(50 * time.Second)

	ok, err := f.p.ExpireKey(ctx, "k", 60)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 60*time.Second, f.mr.TTL("k"))
	assert.Equal(t, 1, f.cmds.get("expire"))

	ok, err = f.p.SetIfNotExists(ctx, "fresh", "v", 60)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = f.p.ExpireKey(ctx, "fresh", 60)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.cmds.get("expire"))
}

func TestBoundedTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	cmds := &cmdCounter{n: map[string]int{}}
	rdb.AddHook(cmds)

	p, err := NewWithClient(rdb, WithBoundedTracker(100), WithCloseClient(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	assert.IsType(t, &ttltrack.Bounded{}, p.ttl)
	assert.True(t, p.ownsTTL)

	ctx := context.Background()
	require.NoError(t, mr.Set("k", "v"))
	for i := 0; i < 3; i++ {
		_, err = p.ExpireKey(ctx, "k", 60)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cmds.get("expire"))
}

func TestNewWithMaxTrackedKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	p, err := New(ctx, cachekit.RedisOptions{ConnectionString: "redis://" + mr.Addr(), MaxTrackedKeys: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })
	assert.IsType(t, &ttltrack.Bounded{}, p.ttl)

	_, err = New(ctx, cachekit.RedisOptions{ConnectionString: "redis://" + mr.Addr(), MaxTrackedKeys: -1})
	assert.True(t, cachekit.IsInvalidArgument(err))
}

func TestEndpointListDialsOneNodeWithDatabase(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	p, err := New(ctx, cachekit.RedisOptions{
		ConnectionString: mr.Addr() + ",127.0.0.1:1,defaultDatabase=2",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })
	assert.IsType(t, &goredis.Client{}, p.rdb)

	_, err = p.Set(ctx, "k", "v", 60, true)
	require.NoError(t, err)
	assert.True(t, mr.DB(2).Exists("k"))
	assert.False(t, mr.DB(0).Exists("k"))
}
