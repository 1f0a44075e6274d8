// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/aether/render"
)

// copyRowAlignment is the required alignment of bytesPerRow in
// texture-to-buffer copies.
const copyRowAlignment = 256

// ReadPixels implements render.Device. It copies src into a staging buffer,
// waits for the copy and unpacks the aligned rows into dst.
func (d *Device) ReadPixels(src render.Texture, dst *image.RGBA) error {
	t, err := d.own(src)
	if err != nil {
		return err
	}
	if uint32(dst.Rect.Dx()) != t.width || uint32(dst.Rect.Dy()) != t.height {
		return render.ErrSizeMismatch
	}

	rowBytes := t.width * 4
	paddedRow := (rowBytes + copyRowAlignment - 1) &^ (copyRowAlignment - 1)
	size := uint64(paddedRow) * uint64(t.height)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.label + "_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "aether_readback"})
	if err != nil {
		return fmt.Errorf("native: create encoder: %w", err)
	}
	defer encoder.Destroy()
	if err := encoder.BeginEncoding("aether_readback"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	allMips := hal.TextureRange{Aspect: gputypes.TextureAspectAll, MipLevelCount: 1, ArrayLayerCount: 1}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.raw,
		Range:   allMips,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.raw, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			BytesPerRow:  paddedRow,
			RowsPerImage: t.height,
		},
		TextureBase: hal.ImageCopyTexture{
			Texture: t.raw,
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.raw,
		Range:   allMips,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("native: end encoding: %w", err)
	}
	if err := d.submit(cmd); err != nil {
		return err
	}

	mapping, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return fmt.Errorf("native: map staging buffer: %w", err)
	}
	defer func() { _ = d.device.UnmapBuffer(staging) }()
	if mapping.Ptr == nil {
		return fmt.Errorf("native: map staging buffer: nil mapping")
	}
	data := unsafe.Slice((*byte)(mapping.Ptr), size)
	for y := range int(t.height) {
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		row := data[uint32(y)*paddedRow : uint32(y)*paddedRow+rowBytes]
		copy(dst.Pix[off:off+int(rowBytes)], row)
	}
	return nil
}
