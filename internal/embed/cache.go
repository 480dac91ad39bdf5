package embed

import (
	"context"
	"sync"
)

// cacheKeyPrefixLen bounds the keyed portion of the text so pathological
// inputs don't blow up key size. Two texts sharing provider and first 512
// characters share a cache slot.
const cacheKeyPrefixLen = 512

// Cache is a strict least-recently-used map from (provider, text prefix) to
// a single vector. It serves the query path only: bulk ingestion always
// computes fresh, but repeated single-text query lookups are costly remote
// calls worth avoiding.
type Cache struct {
	mu       sync.Mutex
	capacity int
	items    map[cacheKey]*cacheNode
	head     *cacheNode // most recently used
	tail     *cacheNode // least recently used
}

type cacheKey struct {
	provider string
	prefix   string
}

type cacheNode struct {
	key    cacheKey
	vector []float32
	dim    int
	prev   *cacheNode
	next   *cacheNode
}

// NewCache creates an LRU cache with a fixed capacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 200
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[cacheKey]*cacheNode),
	}
}

func makeKey(provider, text string) cacheKey {
	if len(text) > cacheKeyPrefixLen {
		text = text[:cacheKeyPrefixLen]
	}
	return cacheKey{provider: provider, prefix: text}
}

// Get returns the cached vector for (provider, text), marking it most
// recently used.
func (c *Cache) Get(provider, text string) ([]float32, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[makeKey(provider, text)]
	if !ok {
		return nil, 0, false
	}
	c.moveToHead(node)
	return node.vector, node.dim, true
}

// Put stores a vector, evicting the least recently used entry when at
// capacity.
func (c *Cache) Put(provider, text string, vector []float32, dim int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := makeKey(provider, text)
	if node, ok := c.items[key]; ok {
		node.vector = vector
		node.dim = dim
		c.moveToHead(node)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictTail()
	}

	node := &cacheNode{key: key, vector: vector, dim: dim}
	c.items[key] = node
	c.addToHead(node)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops all entries; used when the embedding epoch changes.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[cacheKey]*cacheNode)
	c.head = nil
	c.tail = nil
}

func (c *Cache) addToHead(node *cacheNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *Cache) removeNode(node *cacheNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
}

func (c *Cache) moveToHead(node *cacheNode) {
	if c.head == node {
		return
	}
	c.removeNode(node)
	c.addToHead(node)
}

func (c *Cache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.key)
	c.removeNode(c.tail)
}

// CachedProvider wraps a provider with a cache for single-text lookups.
// Batch calls pass through untouched.
type CachedProvider struct {
	inner Provider
	cache *Cache
}

// NewCachedProvider wraps inner with cache.
func NewCachedProvider(inner Provider, cache *Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

// Name reports the wrapped provider's identity.
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// ClearCache drops every cached vector. Called when the embedding epoch
// changes so vectors from the old provider or width cannot be served again.
func (p *CachedProvider) ClearCache() {
	p.cache.Clear()
}

// Embed delegates to the wrapped provider. Single-text batches consult the
// cache first and always insert on miss; larger batches (the ingestion
// path) compute fresh.
func (p *CachedProvider) Embed(ctx context.Context, texts []string) (*Result, error) {
	if len(texts) != 1 {
		return p.inner.Embed(ctx, texts)
	}

	text := texts[0]
	if vec, dim, ok := p.cache.Get(p.inner.Name(), text); ok {
		return &Result{Vectors: [][]float32{vec}, Dim: dim, Provider: p.inner.Name()}, nil
	}

	res, err := p.inner.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	// Key by the provider that actually produced the vector, which for a
	// chain may differ from the first tier's name.
	p.cache.Put(res.Provider, text, res.Vectors[0], res.Dim)
	if res.Provider != p.inner.Name() {
		p.cache.Put(p.inner.Name(), text, res.Vectors[0], res.Dim)
	}
	return res, nil
}
