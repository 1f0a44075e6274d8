// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package aether

import (
	"errors"
	"fmt"

	"github.com/gogpu/aether/compose"
	"github.com/gogpu/aether/render"
)

// FrameStats summarizes one Tick.
type FrameStats struct {
	// Compose reports how each layer was handled.
	Compose compose.Stats

	// Loaded is the number of media loads applied this frame.
	Loaded int

	// Evicted is the number of orphaned locators released.
	Evicted int

	// Swept is the number of media nodes dropped, stale or of removed clips.
	Swept int

	// Slices is the number of slices warped onto the output.
	Slices int

	// DrawCalls is the total number of draws of the frame.
	DrawCalls int
}

// Tick renders one frame.
//
// The state snapshot is read once. Finished media loads are applied and
// orphaned locators released before any layer is resolved, so an evicted
// source is never drawn. Layers are then mixed bottom to top into the
// composition buffer and every active slice warps that same buffer onto
// the output.
func (e *Engine) Tick() (FrameStats, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	p := e.pipe
	if p == nil {
		return FrameStats{}, ErrNotReady
	}

	e.counters.Tick()
	snap := e.provider.Snapshot()
	energy := e.opts.audio.Energy()

	var st FrameStats
	st.Loaded = p.loader.Poll()
	for _, loc := range snap.Orphans {
		p.loader.Evict(loc)
	}
	st.Evicted = len(snap.Orphans)
	st.Swept = p.loader.SweepStaleNodes() + p.loader.Retain(compose.LiveMediaClips(snap))
	if len(snap.Orphans) > 0 {
		e.provider.AcknowledgeOrphans(snap.Orphans)
	}
	if n := p.gens.Retain(compose.LiveClips(snap)); n > 0 {
		p.log.Debug("aether: released generator instances", "count", n)
	}

	elapsed := e.opts.clock().Sub(p.start).Seconds()
	cst, err := p.mixer.Compose(snap, compose.FrameInput{
		Time:  float32(elapsed),
		Audio: energy,
	})
	st.Compose = cst
	if err != nil {
		return st, err
	}

	if err := p.resizeOutput(); err != nil {
		return st, err
	}
	if err := p.stage.Sync(snap.Slices, p.buffer); err != nil {
		return st, err
	}
	for _, s := range snap.Slices {
		if s.Active {
			st.Slices++
		}
	}
	draws, err := p.stage.Render(p.output)
	if err != nil {
		return st, err
	}
	st.DrawCalls = cst.DrawCalls + draws

	e.counters.SetResources(p.loader.Counts())
	e.counters.SetDrawCalls(st.DrawCalls)
	return st, nil
}

// resizeOutput follows the surface size. The composition buffer keeps its
// size; a surface reporting no area keeps the current output.
func (p *pipeline) resizeOutput() error {
	w, h := p.surface.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	if uint32(w) == p.output.Width() && uint32(h) == p.output.Height() {
		return nil
	}
	out, err := p.device.CreateTexture(render.DefaultTextureDescriptor(
		"output", uint32(w), uint32(h)))
	if err != nil {
		if errors.Is(err, render.ErrInvalidSize) {
			p.log.Warn("aether: surface size unsupported", "width", w, "height", h)
			return nil
		}
		return fmt.Errorf("aether: resize output: %w", err)
	}
	p.output.Destroy()
	p.output = out
	p.stage.Resize(w, h)
	p.log.Debug("aether: output resized", "width", w, "height", h)
	return nil
}
