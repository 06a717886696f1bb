package cache

import (
	"hash/fnv"
	"time"
)

// Entry is a stored value with its lifetime.
type Entry[V any] struct {
	Value     V         `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Backend stores entries. Implementations must be safe for concurrent use
// and must not serialize unrelated keys behind a single lock.
type Backend[V any] interface {
	// Get returns the entry for key. Expired entries may still be returned;
	// the Cache decides expiry with its own clock.
	Get(key string) (Entry[V], bool, error)

	// Set stores entry under key.
	Set(key string, entry Entry[V]) error

	// Delete removes key. Missing keys are not an error.
	Delete(key string) error

	// Purge removes every entry.
	Purge() error

	// Len returns the number of stored entries, expired or not.
	Len() int

	// Close releases all resources.
	Close() error
}

// shardIndex maps a key to one of n shards using FNV-1a.
func shardIndex(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
