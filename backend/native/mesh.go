// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/aether/render"
)

// uniformSize is the byte size of the Uniforms block in render.ShaderPrelude.
//
//	viewport vec2<f32>  offset 0
//	time     f32        offset 8
//	speed    f32        offset 12
//	density  f32        offset 16
//	audio    f32        offset 20
//	seed     f32        offset 24
//	alpha    f32        offset 28
const uniformSize = 32

// meshBuffers holds the GPU side of one render.Mesh.
type meshBuffers struct {
	vertex  hal.Buffer
	index   hal.Buffer
	uniform hal.Buffer
	indices uint32
	version uint64

	group hal.BindGroup
	bound hal.TextureView
}

// buffers returns the GPU buffers of m, creating them on first use and
// re-uploading vertices when the mesh version changed.
func (d *Device) buffers(m *render.Mesh) (*meshBuffers, error) {
	mb, ok := d.meshes[m]
	if !ok {
		var err error
		mb, err = d.newMeshBuffers(m)
		if err != nil {
			return nil, err
		}
		d.meshes[m] = mb
	}
	if mb.version != m.Version() {
		if err := d.queue.WriteBuffer(mb.vertex, 0, interleave(m)); err != nil {
			return nil, fmt.Errorf("native: upload mesh %q: %w", m.Label(), err)
		}
		mb.version = m.Version()
	}
	return mb, nil
}

func (d *Device) newMeshBuffers(m *render.Mesh) (*meshBuffers, error) {
	mb := &meshBuffers{indices: uint32(len(m.Indices()))}

	vertices := interleave(m)
	var err error
	mb.vertex, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: m.Label() + "_vertices",
		Size:  uint64(len(vertices)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: vertex buffer %q: %w", m.Label(), err)
	}

	// Index data is padded to a 4-byte multiple for WriteBuffer.
	indices := make([]byte, (len(m.Indices())*2+3)&^3)
	for i, idx := range m.Indices() {
		binary.LittleEndian.PutUint16(indices[i*2:], idx)
	}
	mb.index, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: m.Label() + "_indices",
		Size:  uint64(len(indices)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		mb.destroy(d.device)
		return nil, fmt.Errorf("native: index buffer %q: %w", m.Label(), err)
	}

	mb.uniform, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: m.Label() + "_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		mb.destroy(d.device)
		return nil, fmt.Errorf("native: uniform buffer %q: %w", m.Label(), err)
	}

	if err := d.queue.WriteBuffer(mb.vertex, 0, vertices); err != nil {
		mb.destroy(d.device)
		return nil, fmt.Errorf("native: upload mesh %q: %w", m.Label(), err)
	}
	if err := d.queue.WriteBuffer(mb.index, 0, indices); err != nil {
		mb.destroy(d.device)
		return nil, fmt.Errorf("native: upload mesh %q: %w", m.Label(), err)
	}
	mb.version = m.Version()
	return mb, nil
}

// bind returns the bind group sampling view, recreating it when the view
// changed since the last draw.
func (d *Device) bind(mb *meshBuffers, view hal.TextureView) (hal.BindGroup, error) {
	if mb.group != nil && mb.bound == view {
		return mb.group, nil
	}
	if mb.group != nil {
		d.device.DestroyBindGroup(mb.group)
		mb.group = nil
	}
	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "aether_bind_group",
		Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: mb.uniform.NativeHandle(), Size: uniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: d.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create bind group: %w", err)
	}
	mb.group = group
	mb.bound = view
	return group, nil
}

func (mb *meshBuffers) destroy(device hal.Device) {
	if mb.group != nil {
		device.DestroyBindGroup(mb.group)
	}
	for _, buf := range []hal.Buffer{mb.vertex, mb.index, mb.uniform} {
		if buf != nil {
			device.DestroyBuffer(buf)
		}
	}
	*mb = meshBuffers{}
}

// pruneMeshes releases the buffers of destroyed meshes.
func (d *Device) pruneMeshes() {
	for m, mb := range d.meshes {
		if m.Destroyed() {
			mb.destroy(d.device)
			delete(d.meshes, m)
		}
	}
}

// interleave packs positions and uvs as x, y, u, v float32 vertices.
func interleave(m *render.Mesh) []byte {
	pos, uv := m.Positions(), m.UVs()
	n := m.VertexCount()
	out := make([]byte, n*vertexStride)
	for i := range n {
		o := i * vertexStride
		binary.LittleEndian.PutUint32(out[o:], math.Float32bits(pos[i*2]))
		binary.LittleEndian.PutUint32(out[o+4:], math.Float32bits(pos[i*2+1]))
		binary.LittleEndian.PutUint32(out[o+8:], math.Float32bits(uv[i*2]))
		binary.LittleEndian.PutUint32(out[o+12:], math.Float32bits(uv[i*2+1]))
	}
	return out
}

// packUniforms encodes the uniform block of one draw.
func packUniforms(width, height uint32, u render.Uniforms, alpha float32) []byte {
	vals := [8]float32{
		float32(width), float32(height),
		u.Time, u.Speed, u.Density, u.Audio, u.Seed,
		min(max(alpha, 0), 1),
	}
	out := make([]byte, uniformSize)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
