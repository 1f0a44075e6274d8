// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// solid is a procedural material returning one color everywhere.
type solid struct{ c Color }

func (s solid) Key() string              { return "solid" }
func (s solid) ShaderSource() string     { return ShaderPrelude }
func (s solid) Uniforms() Uniforms       { return Uniforms{} }
func (s solid) Texture() Texture         { return nil }
func (s solid) Shade(_, _ float32) Color { return s.c }

// gradient encodes the sampled coordinate into red and green.
type gradient struct{}

func (gradient) Key() string              { return "gradient" }
func (gradient) ShaderSource() string     { return ShaderPrelude }
func (gradient) Uniforms() Uniforms       { return Uniforms{} }
func (gradient) Texture() Texture         { return nil }
func (gradient) Shade(u, v float32) Color { return Color{R: u, G: v, A: 1} }

// noCPU has neither a texture nor a CPU shading path.
type noCPU struct{}

func (noCPU) Key() string          { return "nocpu" }
func (noCPU) ShaderSource() string { return ShaderPrelude }
func (noCPU) Uniforms() Uniforms   { return Uniforms{} }
func (noCPU) Texture() Texture     { return nil }

func newTestTexture(t *testing.T, d Device, w, h int) Texture {
	t.Helper()
	tex, err := d.CreateTexture(DefaultTextureDescriptor("test", uint32(w), uint32(h)))
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return tex
}

func readback(t *testing.T, d Device, tex Texture) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, int(tex.Width()), int(tex.Height())))
	if err := d.ReadPixels(tex, img); err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	return img
}

func fullQuad(m Material, w, h int) *Mesh {
	q := NewQuad("quad", m)
	_ = q.SetRect(0, 0, float32(w), float32(h))
	return q
}

func TestSoftwareDevice_Clear(t *testing.T) {
	d := NewSoftwareDevice(DeviceOptions{})
	defer d.Destroy()
	tex := newTestTexture(t, d, 4, 3)

	if err := d.Execute(&Pass{Target: tex, Clear: true, ClearColor: Black}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	img := readback(t, d, tex)
	for y := range 3 {
		for x := range 4 {
			if got := img.RGBAAt(x, y); got != (color.RGBA{0, 0, 0, 255}) {
				t.Fatalf("pixel (%d,%d) = %v, want opaque black", x, y, got)
			}
		}
	}
}

func TestSoftwareDevice_FullQuadCoversEveryPixelOnce(t *testing.T) {
	for _, size := range [][2]int{{8, 8}, {7, 5}, {1, 1}, {16, 9}} {
		w, h := size[0], size[1]
		d := NewSoftwareDevice(DeviceOptions{})
		tex := newTestTexture(t, d, w, h)

		// Half-transparent white drawn once gives 128; drawn twice on the
		// diagonal would give 192.
		quad := fullQuad(solid{Color{R: 1, G: 1, B: 1, A: 0.5}}, w, h)
		if err := d.Execute(&Pass{Target: tex, Clear: true, Meshes: []*Mesh{quad}}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		img := readback(t, d, tex)
		for y := range h {
			for x := range w {
				if got := img.RGBAAt(x, y); got != (color.RGBA{128, 128, 128, 128}) {
					t.Fatalf("%dx%d: pixel (%d,%d) = %v, want {128 128 128 128}", w, h, x, y, got)
				}
			}
		}
		d.Destroy()
	}
}

func TestSoftwareDevice_InterpolatesUVAtPixelCenters(t *testing.T) {
	d := NewSoftwareDevice(DeviceOptions{})
	defer d.Destroy()
	tex := newTestTexture(t, d, 4, 2)

	if err := d.Execute(&Pass{Target: tex, Meshes: []*Mesh{fullQuad(gradient{}, 4, 2)}}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	img := readback(t, d, tex)

	// u at column x is (x+0.5)/4, v at row y is (y+0.5)/2.
	want := []uint8{32, 96, 159, 223}
	for x, r := range want {
		got := img.RGBAAt(x, 0)
		if diff(got.R, r) > 1 {
			t.Errorf("column %d red = %d, want %d", x, got.R, r)
		}
	}
	if got := img.RGBAAt(0, 1).G; diff(got, 191) > 1 {
		t.Errorf("row 1 green = %d, want 191", got)
	}
}

func TestSoftwareDevice_DrawOrderAndAlpha(t *testing.T) {
	d := NewSoftwareDevice(DeviceOptions{})
	defer d.Destroy()
	tex := newTestTexture(t, d, 2, 2)

	red := fullQuad(solid{Color{R: 1, A: 1}}, 2, 2)
	blue := fullQuad(solid{Color{B: 1, A: 1}}, 2, 2)
	blue.SetAlpha(0.5)

	pass := &Pass{Target: tex, Clear: true, ClearColor: Black, Meshes: []*Mesh{red, blue}}
	if pass.DrawCount() != 2 {
		t.Fatalf("DrawCount = %d, want 2", pass.DrawCount())
	}
	if err := d.Execute(pass); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	got := readback(t, d, tex).RGBAAt(1, 1)
	if diff(got.R, 128) > 1 || diff(got.B, 128) > 1 || got.A != 255 {
		t.Errorf("pixel = %v, want red and blue mixed half and half", got)
	}
}

func TestSoftwareDevice_SkipsZeroAlphaAndDestroyed(t *testing.T) {
	d := NewSoftwareDevice(DeviceOptions{})
	defer d.Destroy()
	tex := newTestTexture(t, d, 2, 2)

	hidden := fullQuad(solid{Color{R: 1, A: 1}}, 2, 2)
	hidden.SetAlpha(0)
	gone := fullQuad(solid{Color{G: 1, A: 1}}, 2, 2)
	gone.Destroy()

	pass := &Pass{Target: tex, Clear: true, ClearColor: Black, Meshes: []*Mesh{hidden, gone, nil}}
	if pass.DrawCount() != 0 {
		t.Errorf("DrawCount = %d, want 0", pass.DrawCount())
	}
	if err := d.Execute(pass); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := readback(t, d, tex).RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("pixel = %v, want untouched black", got)
	}
}

func TestSoftwareDevice_TextureSampling(t *testing.T) {
	d := NewSoftwareDevice(DeviceOptions{})
	defer d.Destroy()

	src := newTestTexture(t, d, 3, 2)
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 10)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	if err := src.Upload(img); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	dst := newTestTexture(t, d, 3, 2)
	quad := fullQuad(NewTextureMaterial(src), 3, 2)
	if err := d.Execute(&Pass{Target: dst, Clear: true, ClearColor: Black, Meshes: []*Mesh{quad}}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	out := readback(t, d, dst)
	for i := range out.Pix {
		if diff(out.Pix[i], img.Pix[i]) > 1 {
			t.Fatalf("byte %d = %d, want %d (same-size blit must reproduce the source)", i, out.Pix[i], img.Pix[i])
		}
	}
}

func TestSoftwareDevice_ParallelMatchesSerial(t *testing.T) {
	serial := NewSoftwareDevice(DeviceOptions{})
	defer serial.Destroy()
	par := NewSoftwareDevice(DeviceOptions{Workers: 4})
	defer par.Destroy()

	render := func(d *SoftwareDevice) *image.RGBA {
		tex := newTestTexture(t, d, 33, 17)
		tri := NewQuad("warped", gradient{})
		_ = tri.SetPositions([]float32{3, 1, 30, 4, 28, 16, 1, 12})
		if err := d.Execute(&Pass{Target: tex, Clear: true, ClearColor: Black, Meshes: []*Mesh{tri}}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		return readback(t, d, tex)
	}

	a, b := render(serial), render(par)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("byte %d differs: serial %d, parallel %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestSoftwareDevice_Errors(t *testing.T) {
	d := NewSoftwareDevice(DeviceOptions{})
	other := NewSoftwareDevice(DeviceOptions{})
	defer other.Destroy()

	tex := newTestTexture(t, d, 2, 2)
	foreign := newTestTexture(t, other, 2, 2)

	if err := d.Execute(&Pass{}); !errors.Is(err, ErrNoTarget) {
		t.Errorf("no target: err = %v, want ErrNoTarget", err)
	}
	if err := d.Execute(&Pass{Target: foreign}); !errors.Is(err, ErrForeignTexture) {
		t.Errorf("foreign target: err = %v, want ErrForeignTexture", err)
	}
	if err := d.Execute(&Pass{Target: tex, Meshes: []*Mesh{fullQuad(noCPU{}, 2, 2)}}); !errors.Is(err, ErrNoCPUPath) {
		t.Errorf("no CPU path: err = %v, want ErrNoCPUPath", err)
	}
	if err := tex.Upload(image.NewRGBA(image.Rect(0, 0, 3, 3))); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("upload: err = %v, want ErrSizeMismatch", err)
	}
	if _, err := d.CreateTexture(DefaultTextureDescriptor("zero", 0, 4)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero size: err = %v, want ErrInvalidSize", err)
	}

	tex.Destroy()
	tex.Destroy()
	if !tex.Destroyed() {
		t.Error("Destroyed() = false after Destroy")
	}
	if err := d.Execute(&Pass{Target: tex}); !errors.Is(err, ErrTextureDestroyed) {
		t.Errorf("destroyed target: err = %v, want ErrTextureDestroyed", err)
	}

	d.Destroy()
	if _, err := d.CreateTexture(DefaultTextureDescriptor("late", 2, 2)); !errors.Is(err, ErrDeviceDestroyed) {
		t.Errorf("after Destroy: err = %v, want ErrDeviceDestroyed", err)
	}
}

func TestSoftwareDevice_DestroyReleasesTextures(t *testing.T) {
	d := NewSoftwareDevice(DeviceOptions{})
	a := newTestTexture(t, d, 2, 2)
	b := newTestTexture(t, d, 2, 2)
	if d.LiveTextures() != 2 {
		t.Fatalf("LiveTextures = %d, want 2", d.LiveTextures())
	}
	a.Destroy()
	if d.LiveTextures() != 1 {
		t.Errorf("LiveTextures = %d, want 1", d.LiveTextures())
	}
	d.Destroy()
	if !b.Destroyed() {
		t.Error("device Destroy must destroy remaining textures")
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
