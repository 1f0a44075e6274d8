// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/aether/render"
)

// Execute implements render.Device. The pass is submitted and waited on
// before Execute returns.
func (d *Device) Execute(pass *render.Pass) error {
	if pass.Target == nil {
		return render.ErrNoTarget
	}
	dst, err := d.own(pass.Target)
	if err != nil {
		return err
	}
	d.pruneMeshes()

	type draw struct {
		mesh     *render.Mesh
		buffers  *meshBuffers
		pipeline hal.RenderPipeline
		group    hal.BindGroup
	}
	draws := make([]draw, 0, len(pass.Meshes))
	for _, m := range pass.Meshes {
		if !render.Drawable(m) {
			continue
		}
		mat := m.Material()
		pipeline, err := d.pipelines.get(mat)
		if err != nil {
			return fmt.Errorf("native: mesh %q: %w", m.Label(), err)
		}
		view := d.placeholder.view
		if tex := mat.Texture(); tex != nil {
			src, err := d.own(tex)
			if err != nil {
				return fmt.Errorf("native: mesh %q: %w", m.Label(), err)
			}
			view = src.view
		}
		mb, err := d.buffers(m)
		if err != nil {
			return err
		}
		if err := d.queue.WriteBuffer(mb.uniform, 0,
			packUniforms(dst.width, dst.height, mat.Uniforms(), m.Alpha())); err != nil {
			return fmt.Errorf("native: uniforms %q: %w", m.Label(), err)
		}
		group, err := d.bind(mb, view)
		if err != nil {
			return err
		}
		draws = append(draws, draw{mesh: m, buffers: mb, pipeline: pipeline, group: group})
	}

	if !pass.Clear && len(draws) == 0 {
		return nil
	}

	label := pass.Label
	if label == "" {
		label = "aether_pass"
	}
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("native: create encoder: %w", err)
	}
	defer encoder.Destroy()
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	attachment := hal.RenderPassColorAttachment{
		View:    dst.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if pass.Clear {
		r, g, b, a := pass.ClearColor.Premultiply()
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = gputypes.Color{R: float64(r), G: float64(g), B: float64(b), A: float64(a)}
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            label,
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	for _, dr := range draws {
		rp.SetPipeline(dr.pipeline)
		rp.SetBindGroup(0, dr.group, nil)
		rp.SetVertexBuffer(0, dr.buffers.vertex, 0)
		rp.SetIndexBuffer(dr.buffers.index, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(dr.buffers.indices, 1, 0, 0, 0)
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("native: end encoding: %w", err)
	}
	return d.submit(cmd)
}

// submit submits cmd and waits for the queue to drain.
func (d *Device) submit(cmd hal.CommandBuffer) error {
	defer d.device.FreeCommandBuffer(cmd)
	if _, err := d.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("%w: %w", ErrGPUTimeout, err)
	}
	return nil
}
