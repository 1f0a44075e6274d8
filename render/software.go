// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/aether/internal/parallel"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// ErrNoCPUPath is returned by the software device for materials that
// neither sample a texture nor implement Shader.
var ErrNoCPUPath = errors.New("render: material has no CPU shading path")

// softwareMaxTextureSize bounds software textures to what the GPU backends
// are guaranteed to accept.
const softwareMaxTextureSize = 8192

// SoftwareDevice is a CPU implementation of Device.
//
// Triangles are rasterized at pixel centers with bilinear texture sampling
// and premultiplied source-over blending, matching the GPU pipelines of the
// native backend. Passes can be split into horizontal bands executed on a
// worker pool; the output does not depend on the number of workers.
//
// Example:
//
//	dev := render.NewSoftwareDevice(render.DeviceOptions{})
//	tex, _ := dev.CreateTexture(render.DefaultTextureDescriptor("out", 640, 360))
//	_ = dev.Execute(&render.Pass{Target: tex, Clear: true, ClearColor: render.Black})
type SoftwareDevice struct {
	log  *slog.Logger
	pool *parallel.WorkerPool

	mu        sync.Mutex
	textures  map[*softTexture]struct{}
	destroyed bool
}

// NewSoftwareDevice creates a CPU device.
func NewSoftwareDevice(opts DeviceOptions) *SoftwareDevice {
	d := &SoftwareDevice{
		log:      opts.Logger,
		textures: make(map[*softTexture]struct{}),
	}
	if d.log == nil {
		d.log = slog.New(slog.DiscardHandler)
	}
	if opts.Workers > 1 {
		d.pool = parallel.NewWorkerPool(opts.Workers)
	}
	return d
}

// Name implements Device.
func (d *SoftwareDevice) Name() string { return BackendSoftware }

// Capabilities implements Device.
func (d *SoftwareDevice) Capabilities() DeviceCapabilities {
	return DeviceCapabilities{
		MaxTextureSize: softwareMaxTextureSize,
		VendorName:     "gogpu",
		DeviceName:     "software rasterizer",
		AdapterType:    gpucontext.AdapterTypeSoftware,
	}
}

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(desc TextureDescriptor) (Texture, error) {
	if err := ValidateDescriptor(desc, softwareMaxTextureSize); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, ErrDeviceDestroyed
	}

	t := &softTexture{
		device: d,
		label:  desc.Label,
		img:    image.NewRGBA(image.Rect(0, 0, int(desc.Width), int(desc.Height))),
	}
	d.textures[t] = struct{}{}
	return t, nil
}

// LiveTextures returns the number of textures not yet destroyed.
func (d *SoftwareDevice) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// Execute implements Device.
func (d *SoftwareDevice) Execute(pass *Pass) error {
	if pass.Target == nil {
		return ErrNoTarget
	}
	dst, err := d.own(pass.Target)
	if err != nil {
		return err
	}

	if pass.Clear {
		fill(dst.img, pass.ClearColor)
	}

	jobs := make([]drawJob, 0, len(pass.Meshes))
	for _, m := range pass.Meshes {
		if !Drawable(m) {
			continue
		}
		shade, err := d.shader(m.Material())
		if err != nil {
			return fmt.Errorf("render: mesh %q: %w", m.Label(), err)
		}
		jobs = append(jobs, drawJob{mesh: m, alpha: clampAlpha(m.Alpha()), shade: shade})
	}
	if len(jobs) == 0 {
		return nil
	}

	height := dst.img.Rect.Dy()
	if d.pool == nil {
		for _, job := range jobs {
			rasterMesh(dst.img, job, 0, height)
		}
		return nil
	}

	bands := parallel.Bands(height, d.pool.Workers())
	work := make([]func(), len(bands))
	for i, band := range bands {
		work[i] = func() {
			for _, job := range jobs {
				rasterMesh(dst.img, job, band.Y0, band.Y1)
			}
		}
	}
	d.pool.ExecuteAll(work)
	return nil
}

// shader resolves the CPU shading function of a material.
func (d *SoftwareDevice) shader(m Material) (shadeFunc, error) {
	if tex := m.Texture(); tex != nil {
		src, err := d.own(tex)
		if err != nil {
			return nil, err
		}
		img := src.img
		return func(u, v float32) (float32, float32, float32, float32) {
			return sampleBilinear(img, u, v)
		}, nil
	}
	if s, ok := m.(Shader); ok {
		return func(u, v float32) (float32, float32, float32, float32) {
			return s.Shade(u, v).Premultiply()
		}, nil
	}
	return nil, ErrNoCPUPath
}

// ReadPixels implements Device.
func (d *SoftwareDevice) ReadPixels(src Texture, dst *image.RGBA) error {
	t, err := d.own(src)
	if err != nil {
		return err
	}
	if dst.Rect.Dx() != t.img.Rect.Dx() || dst.Rect.Dy() != t.img.Rect.Dy() {
		return ErrSizeMismatch
	}
	copyRows(dst, t.img)
	return nil
}

// Destroy implements Device.
func (d *SoftwareDevice) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	textures := d.textures
	d.textures = make(map[*softTexture]struct{})
	d.mu.Unlock()

	for t := range textures {
		t.destroyed.Store(true)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.log.Debug("render: software device destroyed", "textures", len(textures))
}

func (d *SoftwareDevice) own(tex Texture) (*softTexture, error) {
	t, ok := tex.(*softTexture)
	if !ok || t.device != d {
		return nil, ErrForeignTexture
	}
	if t.Destroyed() {
		return nil, ErrTextureDestroyed
	}
	return t, nil
}

func (d *SoftwareDevice) release(t *softTexture) {
	d.mu.Lock()
	delete(d.textures, t)
	d.mu.Unlock()
}

// softTexture is a Texture backed by an *image.RGBA.
type softTexture struct {
	device    *SoftwareDevice
	label     string
	img       *image.RGBA
	destroyed atomic.Bool
}

func (t *softTexture) Label() string                  { return t.label }
func (t *softTexture) Width() uint32                  { return uint32(t.img.Rect.Dx()) }
func (t *softTexture) Height() uint32                 { return uint32(t.img.Rect.Dy()) }
func (t *softTexture) Format() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (t *softTexture) Destroyed() bool                { return t.destroyed.Load() }

func (t *softTexture) Upload(img *image.RGBA) error {
	if t.Destroyed() {
		return ErrTextureDestroyed
	}
	if img.Rect.Dx() != t.img.Rect.Dx() || img.Rect.Dy() != t.img.Rect.Dy() {
		return ErrSizeMismatch
	}
	copyRows(t.img, img)
	return nil
}

func (t *softTexture) Destroy() {
	if t.destroyed.Swap(true) {
		return
	}
	t.device.release(t)
	t.img.Pix = nil
}

var (
	_ Device  = (*SoftwareDevice)(nil)
	_ Texture = (*softTexture)(nil)
)

func fill(img *image.RGBA, c Color) {
	r, g, b, a := c.Premultiply()
	px := [4]uint8{toByte(r), toByte(g), toByte(b), toByte(a)}
	w := img.Rect.Dx()
	for y := range img.Rect.Dy() {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			copy(row[i:i+4], px[:])
		}
	}
}

// copyRows copies pixels between equally sized images with any strides.
func copyRows(dst, src *image.RGBA) {
	w := src.Rect.Dx() * 4
	for y := range src.Rect.Dy() {
		so := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		do := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[do:do+w], src.Pix[so:so+w])
	}
}

func clampAlpha(a float32) float32 {
	if a > 1 {
		return 1
	}
	return a
}
