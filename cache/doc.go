// Package cache provides the cache capability and key serialization used by the
// audited stores.
//
// # Overview
//
// This package exports two interfaces and their default implementations:
//
//   - Cache: get/set/delete of opaque byte values by string key
//   - KeySerializer: builds stable keys from an entity namespace and an id
//
// Entities are encoded with msgpack before they reach the cache, so every read
// returns an isolated copy and callers can mutate results freely.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	keys := cache.NewDefaultKeySerializer()
//	key := keys.SerializeKey("device", "dev-1") // "device::dev-1"
//
//	if err := cache.SetValue(ctx, svc, key, device); err != nil {
//		// cache writes are best effort
//	}
//	cached, ok, err := cache.GetValue[Device](ctx, svc, key)
//
// # Coherency
//
// The cache is never authoritative. A miss always consults the store, entries are
// written after the store write succeeds and removed on delete. Concurrent writers
// are last-write-wins; expiry is the adapter's TTL, the stores never expire entries.
package cache
