package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryBackend is an in-process backend made of independent LRU shards.
// Capacity is split evenly across shards; when a shard is full its least
// recently used entry is evicted.
type MemoryBackend[V any] struct {
	shards []*lru.Cache[string, Entry[V]]
}

// NewMemoryBackend creates a memory backend holding about capacity entries.
func NewMemoryBackend[V any](capacity, shards int) (*MemoryBackend[V], error) {
	if shards <= 0 {
		shards = DefaultShards
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	perShard := capacity / shards
	if perShard < 1 {
		perShard = 1
	}

	b := &MemoryBackend[V]{shards: make([]*lru.Cache[string, Entry[V]], shards)}
	for i := range b.shards {
		c, err := lru.New[string, Entry[V]](perShard)
		if err != nil {
			return nil, err
		}
		b.shards[i] = c
	}
	return b, nil
}

func (b *MemoryBackend[V]) shard(key string) *lru.Cache[string, Entry[V]] {
	return b.shards[shardIndex(key, len(b.shards))]
}

// Get implements Backend.
func (b *MemoryBackend[V]) Get(key string) (Entry[V], bool, error) {
	e, ok := b.shard(key).Get(key)
	return e, ok, nil
}

// Set implements Backend.
func (b *MemoryBackend[V]) Set(key string, entry Entry[V]) error {
	b.shard(key).Add(key, entry)
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend[V]) Delete(key string) error {
	b.shard(key).Remove(key)
	return nil
}

// Purge implements Backend.
func (b *MemoryBackend[V]) Purge() error {
	for _, s := range b.shards {
		s.Purge()
	}
	return nil
}

// Len implements Backend.
func (b *MemoryBackend[V]) Len() int {
	n := 0
	for _, s := range b.shards {
		n += s.Len()
	}
	return n
}

// Close implements Backend.
func (b *MemoryBackend[V]) Close() error {
	return b.Purge()
}
