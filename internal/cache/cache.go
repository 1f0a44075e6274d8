package cache

// Cache is a generic keyed store with least-recently-used ordering.
//
// Unlike a plain map it keeps entries ordered by last access, can evict the
// oldest entries past a soft limit, and reports every removal through an
// eviction hook so owners can release GPU resources exactly once.
//
// Cache is not safe for concurrent use: all caches in aether live inside the
// single frame tick.
type Cache[K comparable, V any] struct {
	entries   map[K]*entry[K, V]
	head      *entry[K, V] // most recently used
	tail      *entry[K, V] // least recently used
	softLimit int
	onEvict   func(K, V)
}

type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next *entry[K, V]
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithSoftLimit bounds the number of entries. When exceeded, the oldest
// quarter is evicted. 0 means unlimited.
func WithSoftLimit[K comparable, V any](n int) Option[K, V] {
	return func(c *Cache[K, V]) { c.softLimit = n }
}

// WithEvict registers a hook called for every entry removed by Delete,
// DeleteFunc, Clear, Set (replacement) or soft-limit eviction.
func WithEvict[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *Cache[K, V]) { c.onEvict = fn }
}

// New creates an empty cache.
func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{entries: make(map[K]*entry[K, V])}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

// Set stores a value. A replaced value is passed to the eviction hook.
func (c *Cache[K, V]) Set(key K, value V) {
	if e, ok := c.entries[key]; ok {
		old := e.value
		e.value = value
		c.moveToFront(e)
		c.evicted(key, old)
		return
	}
	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)
	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

// GetOrCreate returns the cached value or stores the result of create.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := create()
	c.Set(key, v)
	return v
}

// Delete removes an entry. Returns true if the entry was present.
func (c *Cache[K, V]) Delete(key K) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.remove(e)
	return true
}

// DeleteFunc removes every entry for which del returns true and returns
// the number removed.
func (c *Cache[K, V]) DeleteFunc(del func(K, V) bool) int {
	n := 0
	for e := c.head; e != nil; {
		next := e.next
		if del(e.key, e.value) {
			c.remove(e)
			n++
		}
		e = next
	}
	return n
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	for e := c.head; e != nil; {
		next := e.next
		c.remove(e)
		e = next
	}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	return len(c.entries)
}

// evictOldest removes the least recently used entries until the cache is
// at three quarters of its soft limit.
func (c *Cache[K, V]) evictOldest() {
	target := max(c.softLimit*3/4, 1)
	for len(c.entries) > target && c.tail != nil {
		c.remove(c.tail)
	}
}

func (c *Cache[K, V]) remove(e *entry[K, V]) {
	c.unlink(e)
	delete(c.entries, e.key)
	c.evicted(e.key, e.value)
}

func (c *Cache[K, V]) evicted(key K, value V) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

func (c *Cache[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *Cache[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
