// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "errors"

// ErrNoTarget is returned when a pass has no target texture.
var ErrNoTarget = errors.New("render: pass has no target")

// Pass is one render pass: an optional clear followed by meshes drawn in
// order with premultiplied source-over blending.
type Pass struct {
	// Label is an optional debug label.
	Label string

	// Target receives the output.
	Target Texture

	// Clear fills the target with ClearColor before drawing.
	Clear bool

	// ClearColor is the straight-alpha clear color.
	ClearColor Color

	// Meshes are drawn first to last. Destroyed meshes and meshes with
	// zero alpha are skipped.
	Meshes []*Mesh
}

// DrawCount returns the number of meshes the pass will actually draw.
func (p *Pass) DrawCount() int {
	n := 0
	for _, m := range p.Meshes {
		if Drawable(m) {
			n++
		}
	}
	return n
}

// Drawable reports whether a device should draw m.
func Drawable(m *Mesh) bool {
	return m != nil && !m.Destroyed() && m.Alpha() > 0 && m.Material() != nil
}

// Premultiply converts a straight-alpha color to premultiplied components.
func (c Color) Premultiply() (r, g, b, a float32) {
	return c.R * c.A, c.G * c.A, c.B * c.A, c.A
}
