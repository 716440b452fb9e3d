// Package cache stores built responses keyed by a fingerprint of the tool
// name and its parameters.
//
// MemoryCache is a TTL map guarded by a sync.RWMutex with atomic hit, miss
// and eviction counters. Expiry is enforced two ways and never by a
// background goroutine:
//
//   - on read: an expired entry is treated as absent and removed
//   - on write: a small sample of entries is inspected; when more than
//     SweepRatio of the sample has expired, a bounded pass removes expired
//     entries
//
// NoopCache is used when caching is disabled or unavailable. It misses on
// every read and drops every write.
package cache
