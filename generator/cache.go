package generator

import (
	"log/slog"

	"github.com/gogpu/aether/internal/cache"
	"github.com/gogpu/aether/model"
)

// Cache holds one Instance per generator clip id.
//
// An instance is created the first time its clip is resolved and lives
// until Retain drops it or the cache is cleared; its mesh is destroyed
// exactly once on removal. Cache is not safe for concurrent use.
type Cache struct {
	entries    *cache.Cache[string, *Instance]
	width      float32
	height     float32
	reactivity Reactivity
	log        *slog.Logger
}

// NewCache creates a cache whose quads cover a width x height target.
// A nil logger discards output.
func NewCache(width, height int, r Reactivity, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		entries: cache.New(cache.WithEvict(func(_ string, in *Instance) {
			in.Destroy()
		})),
		width:      float32(width),
		height:     float32(height),
		reactivity: r,
		log:        log,
	}
}

// Resolve returns the instance of clipID bound for this frame. A clip
// whose variant changed gets a fresh instance.
func (c *Cache) Resolve(clipID string, g model.Generator, time, audio float32) *Instance {
	variant, ok := ParseVariant(g.Variant)
	create := func() *Instance {
		if !ok {
			c.log.Warn("generator: unknown variant, using smoke",
				"clip", clipID, "variant", g.Variant)
		}
		return newInstance(clipID, variant, c.width, c.height)
	}
	in := c.entries.GetOrCreate(clipID, create)
	if in.variant != variant {
		in = create()
		c.entries.Set(clipID, in)
	}
	in.Bind(g, time, audio, c.reactivity)
	return in
}

// Retain drops every instance whose clip id is not in live and returns the
// number dropped.
func (c *Cache) Retain(live map[string]struct{}) int {
	return c.entries.DeleteFunc(func(id string, _ *Instance) bool {
		_, ok := live[id]
		return !ok
	})
}

// Len returns the number of live instances.
func (c *Cache) Len() int { return c.entries.Len() }

// Clear destroys every instance.
func (c *Cache) Clear() { c.entries.Clear() }
