// Package cachekit defines a provider-agnostic cache contract covering
// key/value, counters, lists, sets, hashes and expiry, and the plumbing
// shared by its providers.
//
// Components:
//   - Cache: the operation set (cache.go).
//   - Providers: provider/redis implements the contract natively;
//     provider/sqlstore emulates counters, set-once writes and TTL expiry on
//     a relational table and rejects list/set/hash operations with
//     ErrNotSupported.
//   - retry: fixed-delay bounded retries around every provider operation,
//     with a per-provider transient error classifier.
//   - Logger / Hooks: logging and event callbacks (adapters under log/ and hooks/).
//   - Typed[V]: a codec-backed wrapper for storing structured values.
//
// Construct a provider from configuration:
//
//	c, err := provider.Open(ctx, cachekit.CacheOptions{
//	    DefaultProvider: cachekit.ProviderRedis,
//	    Redis:           cachekit.RedisOptions{Endpoint: "localhost"},
//	})
//	if err != nil { ... }
//	defer c.Close(ctx)
//
//	n, _ := c.Increment(ctx, "counter") // 1
package cachekit
