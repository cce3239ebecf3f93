package ttltrack

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto"
)

// Bounded is a Tracker with a fixed entry budget, backed by ristretto.
// Entries carry the tracked TTL as their ristretto TTL, so they expire on
// their own. Admission may reject writes; that only costs a redundant EXPIRE.
type Bounded struct {
	c *ristretto.Cache
}

var _ Tracker = (*Bounded)(nil)

// NewBounded tracks up to maxKeys keys.
func NewBounded(maxKeys int64) (*Bounded, error) {
	if maxKeys <= 0 {
		return nil, errors.Newf("ttltrack: maxKeys must be positive, got %d", maxKeys)
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxKeys * 10,
		MaxCost:     maxKeys,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ttltrack: ristretto")
	}
	return &Bounded{c: c}, nil
}

func (b *Bounded) Needs(key string, ttlSeconds int) bool {
	v, ok := b.c.Get(key)
	if !ok {
		return true
	}
	ttl, _ := v.(int)
	return ttl != ttlSeconds
}

func (b *Bounded) Record(key string, ttlSeconds int) {
	b.c.SetWithTTL(key, ttlSeconds, 1, time.Duration(ttlSeconds)*time.Second)
	// make the write visible to the next Needs call
	b.c.Wait()
}

func (b *Bounded) Forget(keys ...string) {
	for _, k := range keys {
		b.c.Del(k)
	}
}

func (b *Bounded) Close() error {
	b.c.Close()
	return nil
}
