// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native provides a GPU render device using the gogpu/wgpu HAL.
//
// Importing the package registers the "native" backend with render:
//
//	import _ "github.com/gogpu/aether/backend/native"
//
// # Architecture
//
//	Device               implements render.Device and render.Preparer
//	├── texture          hal.Texture + view, RGBA8 premultiplied
//	├── pipelineCache    one render pipeline per Material.Key
//	└── meshBuffers      vertex, index and uniform buffers per mesh
//
// Shaders are compiled from WGSL to SPIR-V with gogpu/naga. Every program
// shares the bind group layout declared by render.ShaderPrelude: a uniform
// block, a texture and a sampler. Procedural programs are bound to a 1x1
// transparent texture.
//
// # Device Sharing
//
// When the surface passed to Open implements
//
//	interface {
//	    HalDevice() any
//	    HalQueue() any
//	}
//
// the host's device is used and never destroyed by this package. Otherwise
// a standalone Vulkan device is opened.
package native
