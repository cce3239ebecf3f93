package cachekit

import "time"

const (
	DefaultRedisPort              = 6379
	DefaultSQLDriver              = "sqlserver"
	DefaultTableName              = "CacheItems"
	DefaultSchemaName             = "dbo"
	DefaultCleanupIntervalMinutes = 15
	DefaultMaxRetries             = 3
	DefaultRetryDelaySeconds      = 2

	// DefaultIncrementExpiry applies to counters created by an increment
	// on the relational provider.
	DefaultIncrementExpiry = time.Hour
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
