// Package cache provides the small key-value caches the presentation layer
// keeps beside the core, injected rather than held in package globals.
package cache

import (
	"fmt"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a get/set capability. Implementations must be safe for concurrent use.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
}

// LRU is a bounded Cache that evicts the least recently used entry.
type LRU[K comparable, V any] struct {
	c *lru.Cache[K, V]
}

// NewLRU creates an LRU holding at most size entries.
func NewLRU[K comparable, V any](size int) (*LRU[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LRU[K, V]{c: c}, nil
}

func (l *LRU[K, V]) Get(key K) (V, bool) {
	return l.c.Get(key)
}

func (l *LRU[K, V]) Set(key K, value V) {
	l.c.Add(key, value)
}

// Len returns the number of cached entries.
func (l *LRU[K, V]) Len() int {
	return l.c.Len()
}

// Backgrounds assigns each highlight one of n card backgrounds and remembers
// the choice so a card keeps its look while it stays cached.
type Backgrounds struct {
	n     int
	cache Cache[string, int]
}

// NewBackgrounds creates an assigner over n backgrounds backed by c.
func NewBackgrounds(n int, c Cache[string, int]) *Backgrounds {
	if n < 1 {
		n = 1
	}
	return &Backgrounds{n: n, cache: c}
}

// For returns the background index for a highlight id.
func (b *Backgrounds) For(id string) int {
	if idx, ok := b.cache.Get(id); ok && idx < b.n {
		return idx
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	idx := int(h.Sum32() % uint32(b.n))
	b.cache.Set(id, idx)
	return idx
}
