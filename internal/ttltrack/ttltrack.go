// Package ttltrack remembers the last TTL applied to each key so the Redis
// provider can skip EXPIRE calls that would change nothing.
//
// Trackers are advisory. Losing an entry costs one redundant EXPIRE; a stale
// entry is bounded by the TTL itself, after which it no longer counts.
package ttltrack

// Tracker must be safe for concurrent use.
type Tracker interface {
	// Needs reports whether ttlSeconds differs from the live TTL recorded for key.
	Needs(key string, ttlSeconds int) bool
	// Record notes that ttlSeconds was just applied to key.
	Record(key string, ttlSeconds int)
	// Forget drops keys, e.g. after they were deleted.
	Forget(keys ...string)
	Close() error
}
