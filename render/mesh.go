// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "errors"

// ErrVertexCount is returned when new positions do not match the mesh.
var ErrVertexCount = errors.New("render: vertex count mismatch")

// QuadIndices triangulates a quad whose corners are ordered
// top-left, top-right, bottom-right, bottom-left.
var QuadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// quadUVs maps the four quad corners onto the unit square.
var quadUVs = [8]float32{0, 0, 1, 0, 1, 1, 0, 1}

// Mesh is an indexed triangle list in target pixel space.
//
// Geometry is allocated once. SetPositions overwrites the position buffer in
// place and bumps the version so GPU devices re-upload only positions. UVs
// and indices never change after construction.
type Mesh struct {
	label     string
	positions []float32 // x, y pairs in target pixels
	uvs       []float32 // u, v pairs, (0,0) top-left
	indices   []uint16
	material  Material
	alpha     float32
	version   uint64
	destroyed bool
}

// NewQuad returns a 4-vertex, 2-triangle mesh with unit-square UVs.
// Positions start at zero; call SetPositions or SetRect before drawing.
func NewQuad(label string, m Material) *Mesh {
	return &Mesh{
		label:     label,
		positions: make([]float32, 8),
		uvs:       append([]float32(nil), quadUVs[:]...),
		indices:   append([]uint16(nil), QuadIndices[:]...),
		material:  m,
		alpha:     1,
		version:   1,
	}
}

// Label returns the debug label of the mesh.
func (m *Mesh) Label() string { return m.label }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.positions) / 2 }

// Positions returns the position buffer. Callers must not modify it.
func (m *Mesh) Positions() []float32 { return m.positions }

// UVs returns the texture coordinate buffer. Callers must not modify it.
func (m *Mesh) UVs() []float32 { return m.uvs }

// Indices returns the index buffer. Callers must not modify it.
func (m *Mesh) Indices() []uint16 { return m.indices }

// SetPositions overwrites the vertex positions. pos holds x, y pairs and
// must have exactly one pair per vertex.
func (m *Mesh) SetPositions(pos []float32) error {
	if len(pos) != len(m.positions) {
		return ErrVertexCount
	}
	copy(m.positions, pos)
	m.version++
	return nil
}

// SetRect places a quad mesh on the axis-aligned rectangle (x0,y0)-(x1,y1).
func (m *Mesh) SetRect(x0, y0, x1, y1 float32) error {
	return m.SetPositions([]float32{x0, y0, x1, y0, x1, y1, x0, y1})
}

// Version increases every time the positions change.
func (m *Mesh) Version() uint64 { return m.version }

// Material returns the material the mesh is drawn with.
func (m *Mesh) Material() Material { return m.material }

// SetMaterial rebinds the material.
func (m *Mesh) SetMaterial(mat Material) { m.material = mat }

// Alpha returns the opacity multiplier applied when drawing.
func (m *Mesh) Alpha() float32 { return m.alpha }

// SetAlpha sets the opacity multiplier applied when drawing.
func (m *Mesh) SetAlpha(a float32) { m.alpha = a }

// Destroy marks the mesh released. Devices drop any buffers they keep for it.
func (m *Mesh) Destroy() { m.destroyed = true }

// Destroyed reports whether Destroy has been called.
func (m *Mesh) Destroyed() bool { return m.destroyed }
