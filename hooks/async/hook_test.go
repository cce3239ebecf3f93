package asynchook

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/unkn0wn-root/cachekit"
)

type recorder struct {
	cachekit.NopHooks
	mu     sync.Mutex
	events []string
	block  chan struct{}
}

func (r *recorder) RetryAttempt(_ int, op, _ string, _ error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, "retry:"+op)
	r.mu.Unlock()
}

func (r *recorder) SweepFailed(table string, _ error) {
	r.mu.Lock()
	r.events = append(r.events, "sweep_failed:"+table)
	r.mu.Unlock()
}

func TestCloseDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{}
	h := New(rec, 1, 16)
	h.RetryAttempt(1, "Get", "", nil)
	h.SweepFailed("CacheItems", nil)
	h.Close()
	h.Close()

	assert.Equal(t, []string{"retry:Get", "sweep_failed:CacheItems"}, rec.events)
	assert.Zero(t, h.Dropped())
}

func TestFullQueueDrops(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := &recorder{block: make(chan struct{})}
	h := New(rec, 1, 1)

	// the worker takes the first event and blocks; the second fills the queue
	h.RetryAttempt(1, "a", "", nil)
	assert.Eventually(t, func() bool { return len(h.q) == 0 }, time.Second, time.Millisecond)
	h.RetryAttempt(1, "b", "", nil)
	h.RetryAttempt(1, "c", "", nil)

	close(rec.block)
	h.Close()
	assert.EqualValues(t, 1, h.Dropped())
	assert.Equal(t, []string{"retry:a", "retry:b"}, rec.events)
}
