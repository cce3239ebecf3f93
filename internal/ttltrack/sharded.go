package ttltrack

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultShards = 32

type entry struct {
	ttl       int
	expiresAt time.Time
}

type shard struct {
	mu sync.RWMutex
	m  map[string]entry
}

// Sharded is the default Tracker: a fixed number of RWMutex-guarded maps
// selected by xxhash of the key, with an optional cleanup loop that prunes
// entries whose TTL has run out.
type Sharded struct {
	shards []shard
	now    func() time.Time

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ Tracker = (*Sharded)(nil)

type ShardedOption func(*Sharded)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ShardedOption { return func(s *Sharded) { s.now = now } }

// WithShards sets the shard count (default 32).
func WithShards(n int) ShardedOption {
	return func(s *Sharded) {
		if n > 0 {
			s.shards = make([]shard, n)
		}
	}
}

// NewSharded returns a tracker. cleanupInterval <= 0 disables the cleanup
// loop; expired entries are then replaced lazily.
func NewSharded(cleanupInterval time.Duration, opts ...ShardedOption) *Sharded {
	s := &Sharded{shards: make([]shard, defaultShards), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	for i := range s.shards {
		s.shards[i].m = make(map[string]entry)
	}
	if cleanupInterval > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Sharded) shardFor(key string) *shard {
	return &s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

func (s *Sharded) Needs(key string, ttlSeconds int) bool {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.m[key]
	sh.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return true
	}
	return e.ttl != ttlSeconds
}

func (s *Sharded) Record(key string, ttlSeconds int) {
	sh := s.shardFor(key)
	e := entry{ttl: ttlSeconds, expiresAt: s.now().Add(time.Duration(ttlSeconds) * time.Second)}
	sh.mu.Lock()
	sh.m[key] = e
	sh.mu.Unlock()
}

func (s *Sharded) Forget(keys ...string) {
	for _, k := range keys {
		sh := s.shardFor(k)
		sh.mu.Lock()
		delete(sh.m, k)
		sh.mu.Unlock()
	}
}

func (s *Sharded) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

// Cleanup drops entries whose TTL has passed.
func (s *Sharded) Cleanup() {
	now := s.now()
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, e := range sh.m {
			if !now.Before(e.expiresAt) {
				delete(sh.m, k)
			}
		}
		sh.mu.Unlock()
	}
}

func (s *Sharded) Close() error {
	s.once.Do(func() {
		if s.stopCh != nil {
			s.ticker.Stop()
			close(s.stopCh)
			s.wg.Wait()
		}
	})
	return nil
}
