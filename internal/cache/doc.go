// Package cache provides the generic keyed cache behind the engine's
// per-clip caches.
//
//	c := cache.New[string, *Node](cache.WithEvict(func(_ string, n *Node) {
//	    n.Release()
//	}))
//	c.Set("clip-1", node)
//	node, ok := c.Get("clip-1")
//
// Entries keep least-recently-used order. Every removal, whether explicit,
// by predicate, by replacement or by the soft limit, goes through the
// eviction hook, which is where owners release the resources a value holds.
package cache
