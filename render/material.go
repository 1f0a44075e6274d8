// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

var (
	// Transparent is fully transparent black.
	Transparent = Color{}

	// Black is opaque black.
	Black = Color{A: 1}
)

// Uniforms are the per-draw shader inputs shared by every material.
// Devices add the target size and the mesh alpha when binding them.
type Uniforms struct {
	Time    float32
	Speed   float32
	Density float32
	Audio   float32
	Seed    float32
}

// Material describes how a mesh is shaded.
type Material interface {
	// Key identifies the shader program. Materials with equal keys share
	// one compiled pipeline.
	Key() string

	// ShaderSource returns the complete WGSL module for the program.
	ShaderSource() string

	// Uniforms returns the values bound for the next draw.
	Uniforms() Uniforms

	// Texture returns the sampled texture, or nil for procedural materials.
	Texture() Texture
}

// Shader is implemented by procedural materials that can also be evaluated
// on the CPU. Shade returns the straight-alpha color at the normalized
// coordinate (u, v), (0,0) being the top-left corner.
type Shader interface {
	Shade(u, v float32) Color
}

// ShaderPrelude declares the vertex stage, the uniform block and the
// bindings every program uses. Fragment sources are appended to it.
//
//go:embed shaders/prelude.wgsl
var ShaderPrelude string

//go:embed shaders/blit.wgsl
var blitFragment string

// BlitShader is the pass-through texture sampling program.
var BlitShader = ShaderPrelude + blitFragment

// TextureMaterial samples a texture unchanged.
type TextureMaterial struct {
	tex Texture
}

// NewTextureMaterial returns a pass-through material bound to tex.
func NewTextureMaterial(tex Texture) *TextureMaterial {
	return &TextureMaterial{tex: tex}
}

// Key implements Material.
func (m *TextureMaterial) Key() string { return "blit" }

// ShaderSource implements Material.
func (m *TextureMaterial) ShaderSource() string { return BlitShader }

// Uniforms implements Material.
func (m *TextureMaterial) Uniforms() Uniforms { return Uniforms{} }

// Texture implements Material.
func (m *TextureMaterial) Texture() Texture { return m.tex }

// SetTexture rebinds the sampled texture.
func (m *TextureMaterial) SetTexture(tex Texture) { m.tex = tex }

var _ Material = (*TextureMaterial)(nil)
