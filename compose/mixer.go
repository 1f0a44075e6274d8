// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/aether/generator"
	"github.com/gogpu/aether/media"
	"github.com/gogpu/aether/model"
	"github.com/gogpu/aether/render"
)

// FrameInput carries the per-frame values shared by every layer.
type FrameInput struct {
	// Time is the engine clock in seconds.
	Time float32

	// Audio is the audio energy in [0, 1].
	Audio float32
}

// Stats summarizes one Compose call.
type Stats struct {
	// Drawn counts layers appended to the render list.
	Drawn int

	// Skipped counts layers at zero opacity, without an active clip or
	// with empty content.
	Skipped int

	// Pending counts layers whose media is still loading.
	Pending int

	// Failed counts layers whose media could not be loaded.
	Failed int

	// DrawCalls is the number of draws issued by the pass.
	DrawCalls int
}

// MediaResolver resolves media clips to drawable nodes. *media.Loader
// implements it.
type MediaResolver interface {
	Acquire(clipID, locator string, kind media.Kind) (*media.Node, media.Status)
}

// Mixer renders layer stacks into a fixed-size composition buffer.
type Mixer struct {
	device     render.Device
	target     render.Texture
	generators *generator.Cache
	media      MediaResolver
	log        *slog.Logger

	meshes []*render.Mesh
	pass   render.Pass
}

// NewMixer returns a mixer drawing into target. A nil logger discards
// output.
func NewMixer(device render.Device, target render.Texture, gens *generator.Cache, res MediaResolver, log *slog.Logger) *Mixer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Mixer{
		device:     device,
		target:     target,
		generators: gens,
		media:      res,
		log:        log,
	}
}

// Target returns the composition buffer.
func (m *Mixer) Target() render.Texture { return m.target }

// Compose resolves the active clip of each layer, bottom to top, and draws
// them into the composition buffer in one pass that first clears it.
// Every drawn node gets alpha = layer opacity x global opacity and covers
// the whole buffer.
func (m *Mixer) Compose(snap model.Snapshot, in FrameInput) (Stats, error) {
	var st Stats
	m.meshes = m.meshes[:0]

	for _, layer := range snap.Layers {
		if layer.Opacity == 0 {
			st.Skipped++
			continue
		}
		clip, ok := layer.ActiveClip()
		if !ok {
			st.Skipped++
			continue
		}

		mesh := m.resolve(clip, in, &st)
		if mesh == nil {
			continue
		}
		mesh.SetAlpha(layer.Opacity * snap.GlobalOpacity)
		m.meshes = append(m.meshes, mesh)
		st.Drawn++
	}

	m.pass = render.Pass{
		Label:      "compose",
		Target:     m.target,
		Clear:      true,
		ClearColor: render.Transparent,
		Meshes:     m.meshes,
	}
	st.DrawCalls = m.pass.DrawCount()
	if err := m.device.Execute(&m.pass); err != nil {
		return st, fmt.Errorf("compose: %w", err)
	}
	return st, nil
}

// resolve returns the mesh of a clip, or nil when the layer is skipped
// this frame.
func (m *Mixer) resolve(clip model.Clip, in FrameInput, st *Stats) *render.Mesh {
	var kind media.Kind
	switch c := clip.Content.(type) {
	case model.Generator:
		return m.generators.Resolve(clip.ID, c, in.Time, in.Audio).Mesh()
	case model.Video:
		kind = media.KindVideo
	case model.Image:
		kind = media.KindImage
	default:
		st.Skipped++
		return nil
	}

	node, status := m.media.Acquire(clip.ID, clip.Locator(), kind)
	switch status {
	case media.Ready:
		return node.Mesh()
	case media.Failed:
		st.Failed++
	default:
		st.Pending++
	}
	m.log.Debug("compose: layer skipped", "clip", clip.ID, "status", status)
	return nil
}

// LiveClips returns the ids of every generator clip in the snapshot.
// Generator instances of clips that disappeared can be dropped.
func LiveClips(snap model.Snapshot) map[string]struct{} {
	return liveClips(snap, func(c model.Content) bool {
		_, ok := c.(model.Generator)
		return ok
	})
}

// LiveMediaClips returns the ids of every image and video clip in the
// snapshot. Media nodes of clips that disappeared can be dropped.
func LiveMediaClips(snap model.Snapshot) map[string]struct{} {
	return liveClips(snap, func(c model.Content) bool {
		switch c.(type) {
		case model.Image, model.Video:
			return true
		}
		return false
	})
}

func liveClips(snap model.Snapshot, keep func(model.Content) bool) map[string]struct{} {
	live := make(map[string]struct{})
	for _, layer := range snap.Layers {
		for _, c := range layer.Clips {
			if keep(c.Content) {
				live[c.ID] = struct{}{}
			}
		}
	}
	return live
}
