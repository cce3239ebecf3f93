package cachekit

import "context"

// Cache is the operation set every provider implements.
//
// Expirations are whole seconds and must be positive. Reads of absent or
// expired keys report found=false (or an empty container) and a nil error.
// A provider without a capability returns a *NotSupportedError for every
// operation of that category.
type Cache interface {
	Increment(ctx context.Context, key string) (int64, error)
	IncrementBy(ctx context.Context, key string, n int64) (int64, error)
	Decrement(ctx context.Context, key string) (int64, error)
	DecrementBy(ctx context.Context, key string, n int64) (int64, error)

	// Delete reports whether the key was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// DeleteMany reports whether every distinct key was removed. Keys that
	// did exist are removed either way.
	DeleteMany(ctx context.Context, keys []string) (bool, error)

	// Set always writes when createOrOverwrite is true. Otherwise it writes
	// only when no live value exists. It reports whether the write happened.
	Set(ctx context.Context, key, value string, expireInSeconds int, createOrOverwrite bool) (bool, error)
	SetIfNotExists(ctx context.Context, key, value string, expireInSeconds int) (bool, error)
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// ExpireKey (re)applies a TTL and reports whether a change was applied.
	ExpireKey(ctx context.Context, key string, expireInSeconds int) (bool, error)

	AddToList(ctx context.Context, key, value string, expireInSeconds int, createOrOverwrite bool) (int64, error)
	GetList(ctx context.Context, key string) ([]string, error)
	RemoveFromList(ctx context.Context, key, value string) (int64, error)
	LengthOfList(ctx context.Context, key string) (int64, error)

	AddToSet(ctx context.Context, key, value string, expireInSeconds int) (bool, error)
	GetSet(ctx context.Context, key string) ([]string, error)
	RemoveFromSet(ctx context.Context, key, value string) (bool, error)
	LengthOfSet(ctx context.Context, key string) (int64, error)

	AddToHash(ctx context.Context, key, field, value string, expireInSeconds int, createOrOverwrite bool) (bool, error)
	GetHash(ctx context.Context, key, field string) (value string, found bool, err error)
	GetHashAll(ctx context.Context, key string) (map[string]string, error)
	RemoveFromHash(ctx context.Context, key, field string) (bool, error)
	LengthOfHash(ctx context.Context, key string) (int64, error)

	// Close releases the provider's resources. Safe to call more than once.
	Close(ctx context.Context) error
}
