// Package cache provides a generic, thread-safe LRU cache and a read-through
// store.Store decorator built on it.
//
// # LRU
//
//	c := cache.NewLRU[string, []byte](100)
//	c.Put("a", []byte("1"))
//	v, ok := c.Get("a")
//
// When the cache is full the least recently used item is evicted and the
// OnEvict callback, if any, is invoked. Get, Peek, Put and Remove are O(1).
//
// # Store decorator
//
// Store keeps recently read state values of selected tiers in memory:
//
//	st := cache.NewStore(redisStorage, 1024, cache.WithTiers(store.Persistent))
//
// Writes go through to the base store first and then refresh the cache, so a
// failed write never leaves a value cached that the base store does not hold.
// Tiers that carry a TTL in the base store's configuration are never cached,
// so expiry is always observed. Cached values age out after WithMaxAge (30s by
// default). Store assumes it is the only writer of the cached tiers; when
// several processes share a backend keep the max age short or do not cache.
package cache
