// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package warp

import (
	"image"
	"slices"
	"testing"

	"github.com/gogpu/aether/model"
	"github.com/gogpu/aether/render"
)

func newTestStage(t *testing.T, w, h int) (*Stage, *render.SoftwareDevice) {
	t.Helper()
	dev := render.NewSoftwareDevice(render.DeviceOptions{})
	t.Cleanup(dev.Destroy)
	return NewStage(dev, w, h, nil), dev
}

func newTexture(t *testing.T, dev render.Device, w, h int) render.Texture {
	t.Helper()
	tex, err := dev.CreateTexture(render.DefaultTextureDescriptor("tex", uint32(w), uint32(h)))
	if err != nil {
		t.Fatal(err)
	}
	return tex
}

func TestUpdateSliceScalesPoints(t *testing.T) {
	s, dev := newTestStage(t, 1000, 500)
	src := newTexture(t, dev, 4, 4)
	pts := [4]model.Point{{X: 0.1, Y: 0.0}, {X: 0.9, Y: 0.1}, {X: 0.95, Y: 0.9}, {X: 0.05, Y: 1.0}}

	if err := s.UpdateSlice("s1", pts, src); err != nil {
		t.Fatal(err)
	}
	m, ok := s.Mesh("s1")
	if !ok {
		t.Fatal("slice mesh not created")
	}

	want := []float32{100, 0, 900, 50, 950, 450, 50, 500}
	for i, v := range m.Positions() {
		if d := v - want[i]; d > 1e-3 || d < -1e-3 {
			t.Errorf("position[%d] = %v, want %v", i, v, want[i])
		}
	}
	if !slices.Equal(m.Indices(), render.QuadIndices[:]) {
		t.Errorf("indices = %v, want %v", m.Indices(), render.QuadIndices)
	}
	if !slices.Equal(m.UVs(), []float32{0, 0, 1, 0, 1, 1, 0, 1}) {
		t.Errorf("uvs = %v", m.UVs())
	}
	if m.Material().Texture() != src {
		t.Error("slice should sample the given texture")
	}
}

func TestUpdateSliceIsIdempotent(t *testing.T) {
	s, dev := newTestStage(t, 640, 480)
	src := newTexture(t, dev, 4, 4)
	pts := [4]model.Point{{X: 0.2, Y: 0.1}, {X: 0.8, Y: 0.1}, {X: 0.8, Y: 0.9}, {X: 0.2, Y: 0.9}}

	if err := s.UpdateSlice("s1", pts, src); err != nil {
		t.Fatal(err)
	}
	m1, _ := s.Mesh("s1")
	first := slices.Clone(m1.Positions())
	idx := m1.Indices()

	if err := s.UpdateSlice("s1", pts, src); err != nil {
		t.Fatal(err)
	}
	m2, _ := s.Mesh("s1")
	if m1 != m2 {
		t.Fatal("second UpdateSlice should reuse the mesh")
	}
	if !slices.Equal(first, m2.Positions()) {
		t.Errorf("positions changed: %v -> %v", first, m2.Positions())
	}
	if &idx[0] != &m2.Indices()[0] {
		t.Error("index buffer should not be reallocated")
	}
	if s.Len() != 1 || len(s.frame) != 1 {
		t.Errorf("Len() = %d, queued = %d; want 1, 1", s.Len(), len(s.frame))
	}
}

func TestUnitSquareIsIdentity(t *testing.T) {
	const w, h = 24, 16
	s, dev := newTestStage(t, w, h)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			i := img.PixOffset(x, y)
			img.Pix[i] = uint8(x * 10)
			img.Pix[i+1] = uint8(y * 15)
			img.Pix[i+2] = uint8((x + y) * 5)
			img.Pix[i+3] = 255
		}
	}
	src := newTexture(t, dev, w, h)
	if err := src.Upload(img); err != nil {
		t.Fatal(err)
	}
	surface := newTexture(t, dev, w, h)

	if err := s.UpdateSlice("s1", model.UnitSquare, src); err != nil {
		t.Fatal(err)
	}
	draws, err := s.Render(surface)
	if err != nil {
		t.Fatal(err)
	}
	if draws != 1 {
		t.Errorf("draws = %d, want 1", draws)
	}

	got := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := dev.ReadPixels(surface, got); err != nil {
		t.Fatal(err)
	}
	for i := range got.Pix {
		d := int(got.Pix[i]) - int(img.Pix[i])
		if d > 1 || d < -1 {
			t.Fatalf("byte %d = %d, want %d", i, got.Pix[i], img.Pix[i])
		}
	}
}

func TestSyncSkipsInactiveSlices(t *testing.T) {
	const w, h = 8, 8
	s, dev := newTestStage(t, w, h)
	src := newTexture(t, dev, 2, 2)
	white := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range white.Pix {
		white.Pix[i] = 255
	}
	if err := src.Upload(white); err != nil {
		t.Fatal(err)
	}
	surface := newTexture(t, dev, w, h)

	left := [4]model.Point{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1}}
	right := [4]model.Point{{X: 0.5, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0.5, Y: 1}}
	err := s.Sync([]model.Slice{
		{ID: "left", Points: left, Active: true},
		{ID: "right", Points: right, Active: false},
	}, src)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Mesh("right"); ok {
		t.Error("inactive slice should not get a mesh")
	}
	if _, err := s.Render(surface); err != nil {
		t.Fatal(err)
	}

	got := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := dev.ReadPixels(surface, got); err != nil {
		t.Fatal(err)
	}
	if p := got.RGBAAt(1, 4); p.R != 255 {
		t.Errorf("left half = %v, want white", p)
	}
	if p := got.RGBAAt(6, 4); p.R != 0 || p.A != 255 {
		t.Errorf("right half = %v, want opaque black", p)
	}

	// Nothing updated since the last Render: only the black clear.
	if draws, err := s.Render(surface); err != nil || draws != 0 {
		t.Errorf("second Render = %d, %v; want 0 draws", draws, err)
	}

	// A slice removed from the list loses its mesh.
	if err := s.Sync(nil, src); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after removal, want 0", s.Len())
	}
}

func TestResizeAffectsLaterUpdates(t *testing.T) {
	s, dev := newTestStage(t, 100, 100)
	src := newTexture(t, dev, 2, 2)
	if err := s.UpdateSlice("s1", model.UnitSquare, src); err != nil {
		t.Fatal(err)
	}
	s.Resize(200, 50)
	if w, h := s.Size(); w != 200 || h != 50 {
		t.Fatalf("Size() = %d, %d", w, h)
	}
	if err := s.UpdateSlice("s1", model.UnitSquare, src); err != nil {
		t.Fatal(err)
	}
	m, _ := s.Mesh("s1")
	if pos := m.Positions(); pos[4] != 200 || pos[5] != 50 {
		t.Errorf("positions = %v, want bottom-right at 200,50", pos)
	}

	s.Clear()
	if s.Len() != 0 || !m.Destroyed() {
		t.Error("Clear should destroy every slice mesh")
	}
}
