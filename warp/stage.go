// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package warp

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/aether/model"
	"github.com/gogpu/aether/render"
)

// slice is the render state of one output slice.
type slice struct {
	mesh     *render.Mesh
	material *render.TextureMaterial
	queued   bool
}

// Stage owns the slice meshes and draws them to the surface texture.
//
// Stage is not safe for concurrent use.
type Stage struct {
	device render.Device
	log    *slog.Logger
	width  float32
	height float32

	slices map[string]*slice
	frame  []*render.Mesh
	pass   render.Pass
}

// NewStage returns a stage for a width x height surface. A nil logger
// discards output.
func NewStage(device render.Device, width, height int, log *slog.Logger) *Stage {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Stage{
		device: device,
		log:    log,
		width:  float32(width),
		height: float32(height),
		slices: make(map[string]*slice),
	}
}

// Resize changes the surface size used by later UpdateSlice calls.
func (s *Stage) Resize(width, height int) {
	if float32(width) == s.width && float32(height) == s.height {
		return
	}
	s.log.Debug("warp: surface resized", "width", width, "height", height)
	s.width, s.height = float32(width), float32(height)
}

// Size returns the surface size in pixels.
func (s *Stage) Size() (width, height int) { return int(s.width), int(s.height) }

// UpdateSlice places slice id at points, given in normalized surface
// coordinates, and binds src as its texture. The first call for an id
// builds the mesh; later calls only overwrite its positions. The slice is
// drawn by the next Render.
func (s *Stage) UpdateSlice(id string, points [4]model.Point, src render.Texture) error {
	sl, ok := s.slices[id]
	if !ok {
		mat := render.NewTextureMaterial(src)
		sl = &slice{mesh: render.NewQuad("slice/"+id, mat), material: mat}
		s.slices[id] = sl
	}
	sl.material.SetTexture(src)

	var pos [8]float32
	for i, p := range points {
		pos[i*2] = p.X * s.width
		pos[i*2+1] = p.Y * s.height
	}
	if err := sl.mesh.SetPositions(pos[:]); err != nil {
		return fmt.Errorf("warp: slice %q: %w", id, err)
	}

	if !sl.queued {
		sl.queued = true
		s.frame = append(s.frame, sl.mesh)
	}
	return nil
}

// Sync updates every active slice in order and drops meshes of slices no
// longer listed. Inactive slices keep their mesh but are not drawn.
func (s *Stage) Sync(slices []model.Slice, src render.Texture) error {
	listed := make(map[string]struct{}, len(slices))
	for _, sl := range slices {
		listed[sl.ID] = struct{}{}
		if !sl.Active {
			continue
		}
		if err := s.UpdateSlice(sl.ID, sl.Points, src); err != nil {
			return err
		}
	}
	for id, sl := range s.slices {
		if _, ok := listed[id]; !ok && !sl.queued {
			sl.mesh.Destroy()
			delete(s.slices, id)
		}
	}
	return nil
}

// Render draws the slices updated since the last Render into target,
// after clearing it to opaque black. It returns the number of draw calls.
func (s *Stage) Render(target render.Texture) (int, error) {
	s.pass = render.Pass{
		Label:      "warp",
		Target:     target,
		Clear:      true,
		ClearColor: render.Black,
		Meshes:     s.frame,
	}
	draws := s.pass.DrawCount()
	err := s.device.Execute(&s.pass)

	for _, sl := range s.slices {
		sl.queued = false
	}
	s.frame = s.frame[:0]
	if err != nil {
		return 0, fmt.Errorf("warp: %w", err)
	}
	return draws, nil
}

// Mesh returns the mesh of slice id.
func (s *Stage) Mesh(id string) (*render.Mesh, bool) {
	sl, ok := s.slices[id]
	if !ok {
		return nil, false
	}
	return sl.mesh, true
}

// Len returns the number of slice meshes.
func (s *Stage) Len() int { return len(s.slices) }

// Clear destroys every slice mesh.
func (s *Stage) Clear() {
	for id, sl := range s.slices {
		sl.mesh.Destroy()
		delete(s.slices, id)
	}
	s.frame = s.frame[:0]
}
