// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the device layer of aether.
//
// It defines the small set of abstractions the compositor and the warp stage
// draw with, and a CPU implementation of them:
//
//   - Device: creates textures, executes passes, reads pixels back
//   - Texture: premultiplied RGBA8 image owned by a device
//   - Mesh: indexed triangles in target pixel space with fixed UVs
//   - Material: a WGSL program plus its uniforms and optional texture
//   - Pass: clear followed by meshes drawn in order, source-over
//
// # Backends
//
// Backends register a factory by name; Open picks one explicitly or the
// first that opens in priority order (native, software):
//
//	dev, err := render.Open("", surface, render.DeviceOptions{Logger: log})
//
// The software backend is always available. The GPU backend lives in
// backend/native and registers itself when imported:
//
//	import _ "github.com/gogpu/aether/backend/native"
//
// # Shaders
//
// Every program is ShaderPrelude followed by a fragment entry point fs_main.
// The prelude declares the vertex stage and the bind group layout shared by
// all programs: uniforms at binding 0, a texture at binding 1 and a sampler
// at binding 2. Procedural materials also implement Shader so the software
// device can evaluate them per pixel.
package render
