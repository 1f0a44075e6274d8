// Package telemetry tracks frame rate and resource counts of an engine.
//
// Counters are written by the frame goroutine and may be read from any
// goroutine; there is no push mechanism. Metrics exports the same values
// to Prometheus.
package telemetry

import (
	"sync"
	"time"
)

// Window is the period over which FPS is counted.
const Window = time.Second

// Stats is a read-only copy of the counters.
type Stats struct {
	// FPS is the number of frames in the last completed window.
	FPS int

	// FrameTime is the duration between the last two frames.
	FrameTime time.Duration

	// Frames is the number of frames since the counters were created.
	Frames uint64

	// Textures is the number of live media textures.
	Textures int

	// Videos is the number of live video playback handles.
	Videos int

	// DrawCalls is the number of draws issued by the last frame.
	DrawCalls int
}

// Counters accumulates per-frame telemetry.
type Counters struct {
	now func() time.Time

	mu          sync.Mutex
	stats       Stats
	windowStart time.Time
	windowCount int
	last        time.Time
}

// NewCounters returns counters reading time from now. A nil now uses
// time.Now.
func NewCounters(now func() time.Time) *Counters {
	if now == nil {
		now = time.Now
	}
	return &Counters{now: now}
}

// Tick records the start of a frame. FPS is recomputed once the current
// window has lasted Window; a window counts the frames after its opening
// frame, up to and including the one that closes it.
func (c *Counters) Tick() {
	t := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Frames++
	if c.windowStart.IsZero() {
		// The first frame opens the window without falling inside it.
		c.windowStart, c.last = t, t
		return
	}
	c.stats.FrameTime = t.Sub(c.last)
	c.last = t
	c.windowCount++
	if t.Sub(c.windowStart) >= Window {
		c.stats.FPS = c.windowCount
		c.windowCount = 0
		c.windowStart = t
	}
}

// SetResources records the live texture and video handle counts.
func (c *Counters) SetResources(textures, videos int) {
	c.mu.Lock()
	c.stats.Textures, c.stats.Videos = textures, videos
	c.mu.Unlock()
}

// SetDrawCalls records the draws issued by the current frame.
func (c *Counters) SetDrawCalls(n int) {
	c.mu.Lock()
	c.stats.DrawCalls = n
	c.mu.Unlock()
}

// Stats returns a copy of the counters.
func (c *Counters) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Reset clears every counter.
func (c *Counters) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{}
	c.windowStart, c.last = time.Time{}, time.Time{}
	c.windowCount = 0
}
