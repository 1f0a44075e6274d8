// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/aether/render"
)

// texture is a render.Texture backed by a HAL texture and its default
// view. The view serves both as sampled source and as pass target.
type texture struct {
	device *Device
	label  string
	width  uint32
	height uint32

	raw  hal.Texture
	view hal.TextureView

	destroyed atomic.Bool
}

var _ render.Texture = (*texture)(nil)

func (d *Device) newTexture(desc render.TextureDescriptor) (*texture, error) {
	if err := render.ValidateDescriptor(desc, d.limits.MaxTextureDimension2D); err != nil {
		return nil, err
	}
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         halUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}
	view, err := d.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(raw)
		return nil, fmt.Errorf("native: create view %q: %w", desc.Label, err)
	}
	return &texture{
		device: d,
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		raw:    raw,
		view:   view,
	}, nil
}

// halUsage maps render usage flags to HAL usage flags.
func halUsage(u render.TextureUsage) gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&render.TextureUsageCopySrc != 0 {
		out |= gputypes.TextureUsageCopySrc
	}
	if u&render.TextureUsageCopyDst != 0 {
		out |= gputypes.TextureUsageCopyDst
	}
	if u&render.TextureUsageTextureBinding != 0 {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u&render.TextureUsageRenderAttachment != 0 {
		out |= gputypes.TextureUsageRenderAttachment
	}
	return out
}

func (t *texture) Label() string                  { return t.label }
func (t *texture) Width() uint32                  { return t.width }
func (t *texture) Height() uint32                 { return t.height }
func (t *texture) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (t *texture) Destroyed() bool                { return t.destroyed.Load() }

// Upload implements render.Texture.
func (t *texture) Upload(img *image.RGBA) error {
	if t.Destroyed() {
		return render.ErrTextureDestroyed
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if uint32(w) != t.width || uint32(h) != t.height {
		return render.ErrSizeMismatch
	}
	data := img.Pix
	if img.Stride != w*4 || img.Rect.Min != (image.Point{}) {
		data = make([]byte, w*h*4)
		for y := range h {
			off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
			copy(data[y*w*4:(y+1)*w*4], img.Pix[off:off+w*4])
		}
	}
	err := t.device.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: 0,
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * 4,
			RowsPerImage: t.height,
		},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("native: upload %q: %w", t.label, err)
	}
	return nil
}

// Destroy implements render.Texture.
func (t *texture) Destroy() {
	if t.destroyed.Swap(true) {
		return
	}
	t.device.forget(t)
	t.free()
}

// release destroys the texture during device teardown.
func (t *texture) release() {
	if t.destroyed.Swap(true) {
		return
	}
	t.free()
}

func (t *texture) free() {
	t.device.device.DestroyTextureView(t.view)
	t.device.device.DestroyTexture(t.raw)
}
