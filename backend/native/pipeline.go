// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/aether/render"
)

// vertexStride is the byte stride of the interleaved vertex buffer.
//
//	position (vec2<f32>) = 8 bytes (location 0)
//	uv       (vec2<f32>) = 8 bytes (location 1)
const vertexStride = 16

// program is a compiled material pipeline.
type program struct {
	shader   hal.ShaderModule
	pipeline hal.RenderPipeline
}

// pipelineCache compiles one render pipeline per material key.
type pipelineCache struct {
	device   hal.Device
	layout   hal.PipelineLayout
	programs map[string]*program
}

func newPipelineCache(device hal.Device, layout hal.PipelineLayout) *pipelineCache {
	return &pipelineCache{
		device:   device,
		layout:   layout,
		programs: make(map[string]*program),
	}
}

func (c *pipelineCache) len() int { return len(c.programs) }

// get returns the pipeline of m, compiling it on first use.
func (c *pipelineCache) get(m render.Material) (hal.RenderPipeline, error) {
	key := m.Key()
	if p, ok := c.programs[key]; ok {
		return p.pipeline, nil
	}

	spirv, err := compileShader(m.ShaderSource())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrShaderCompile, key, err)
	}
	shader, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  key,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader %s: %w", key, err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  key,
		Layout: c.layout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				Blend:     &premulBlend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		c.device.DestroyShaderModule(shader)
		return nil, fmt.Errorf("native: create pipeline %s: %w", key, err)
	}
	c.programs[key] = &program{shader: shader, pipeline: pipeline}
	return pipeline, nil
}

func (c *pipelineCache) destroy() {
	for key, p := range c.programs {
		c.device.DestroyRenderPipeline(p.pipeline)
		if p.shader != nil {
			c.device.DestroyShaderModule(p.shader)
		}
		delete(c.programs, key)
	}
}

// vertexLayout matches VertexInput in render.ShaderPrelude.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // uv
		},
	}}
}

// compileShader compiles WGSL to SPIR-V words.
func compileShader(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
