// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"math"
)

// sampleBilinear samples img at normalized (u, v) with clamp-to-edge
// addressing and returns premultiplied components in [0, 1].
// Texel centers sit at half-pixel offsets, as on the GPU.
func sampleBilinear(img *image.RGBA, u, v float32) (r, g, b, a float32) {
	w := img.Rect.Dx()
	h := img.Rect.Dy()

	fx := float64(u)*float64(w) - 0.5
	fy := float64(v)*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)

	p00 := texel(img, x0, y0)
	p10 := texel(img, x1, y0)
	p01 := texel(img, x0, y1)
	p11 := texel(img, x1, y1)

	const inv = 1.0 / 255
	r = lerp2D(p00[0], p10[0], p01[0], p11[0], tx, ty) * inv
	g = lerp2D(p00[1], p10[1], p01[1], p11[1], tx, ty) * inv
	b = lerp2D(p00[2], p10[2], p01[2], p11[2], tx, ty) * inv
	a = lerp2D(p00[3], p10[3], p01[3], p11[3], tx, ty) * inv
	return r, g, b, a
}

func texel(img *image.RGBA, x, y int) [4]float32 {
	i := y*img.Stride + x*4
	p := img.Pix[i : i+4 : i+4]
	return [4]float32{float32(p[0]), float32(p[1]), float32(p[2]), float32(p[3])}
}

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func lerp2D(v00, v10, v01, v11, tx, ty float32) float32 {
	return lerp(lerp(v00, v10, tx), lerp(v01, v11, tx), ty)
}

// toByte converts a [0, 1] component to a rounded byte.
func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
