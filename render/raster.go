// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"math"
)

// shadeFunc returns the premultiplied color at a normalized coordinate.
type shadeFunc func(u, v float32) (r, g, b, a float32)

// drawJob is one mesh resolved for rasterization.
type drawJob struct {
	mesh  *Mesh
	alpha float32
	shade shadeFunc
}

type vec2 struct{ x, y float64 }

// edge returns twice the signed area of the triangle (a, b, c).
func edge(a, b, c vec2) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

// ownsEdge decides which of two triangles sharing an edge covers pixel
// centers lying exactly on it. The shared edge runs in opposite directions
// in the two triangles, so exactly one of them owns it.
func ownsEdge(a, b vec2) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return dy > 0 || (dy == 0 && dx < 0)
}

// rasterMesh draws every triangle of job into dst, restricted to rows
// [y0, y1).
func rasterMesh(dst *image.RGBA, job drawJob, y0, y1 int) {
	pos := job.mesh.Positions()
	uvs := job.mesh.UVs()
	idx := job.mesh.Indices()
	for i := 0; i+2 < len(idx); i += 3 {
		var p [3]vec2
		var t [3]vec2
		for k := range 3 {
			vi := int(idx[i+k])
			p[k] = vec2{float64(pos[vi*2]), float64(pos[vi*2+1])}
			t[k] = vec2{float64(uvs[vi*2]), float64(uvs[vi*2+1])}
		}
		rasterTriangle(dst, p, t, job, y0, y1)
	}
}

func rasterTriangle(dst *image.RGBA, p, t [3]vec2, job drawJob, y0, y1 int) {
	area := edge(p[0], p[1], p[2])
	if area == 0 {
		return
	}
	if area < 0 {
		p[1], p[2] = p[2], p[1]
		t[1], t[2] = t[2], t[1]
		area = -area
	}

	w := dst.Rect.Dx()
	h := dst.Rect.Dy()
	minX := clamp(int(math.Floor(min(p[0].x, p[1].x, p[2].x))), 0, w)
	maxX := clamp(int(math.Ceil(max(p[0].x, p[1].x, p[2].x))), 0, w)
	minY := clamp(int(math.Floor(min(p[0].y, p[1].y, p[2].y))), max(0, y0), min(h, y1))
	maxY := clamp(int(math.Ceil(max(p[0].y, p[1].y, p[2].y))), max(0, y0), min(h, y1))

	own0 := ownsEdge(p[1], p[2])
	own1 := ownsEdge(p[2], p[0])
	own2 := ownsEdge(p[0], p[1])

	for y := minY; y < maxY; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := minX; x < maxX; x++ {
			c := vec2{float64(x) + 0.5, float64(y) + 0.5}
			w0 := edge(p[1], p[2], c)
			w1 := edge(p[2], p[0], c)
			w2 := edge(p[0], p[1], c)
			if !covered(w0, own0) || !covered(w1, own1) || !covered(w2, own2) {
				continue
			}
			u := float32((w0*t[0].x + w1*t[1].x + w2*t[2].x) / area)
			v := float32((w0*t[0].y + w1*t[1].y + w2*t[2].y) / area)
			r, g, b, a := job.shade(u, v)
			blendOver(row[x*4:x*4+4:x*4+4], r*job.alpha, g*job.alpha, b*job.alpha, a*job.alpha)
		}
	}
}

func covered(w float64, owns bool) bool {
	return w > 0 || (w == 0 && owns)
}

// blendOver composites a premultiplied source onto a premultiplied RGBA8
// pixel: dst = src + dst * (1 - srcAlpha).
func blendOver(px []uint8, r, g, b, a float32) {
	const inv = 1.0 / 255
	k := 1 - a
	px[0] = toByte(r + float32(px[0])*inv*k)
	px[1] = toByte(g + float32(px[1])*inv*k)
	px[2] = toByte(b + float32(px[2])*inv*k)
	px[3] = toByte(a + float32(px[3])*inv*k)
}
