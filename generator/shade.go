package generator

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/aether/render"
)

// Shade evaluates a variant at the normalized coordinate (u, v), (0,0)
// being the top-left corner. It is the CPU twin of the variant's WGSL
// program and a pure function of its arguments. Components are clamped to
// [0, 1]; alpha is always 1.
func Shade(variant Variant, u, v float32, in render.Uniforms) render.Color {
	var r, g, b float32
	switch variant {
	case VoronoiFlow:
		r, g, b = voronoiFlow(u, v, in)
	case ScanlineGrid:
		r, g, b = scanlineGrid(u, v, in)
	default:
		r, g, b = smoke(u, v, in)
	}
	return render.Color{R: saturate(r), G: saturate(g), B: saturate(b), A: 1}
}

func smoke(u, v float32, in render.Uniforms) (r, g, b float32) {
	t := in.Time * in.Speed
	n1 := snoise(u*3+t*0.1, v*3+t*0.1)
	n2 := snoise(u*6-t*0.2+n1, v*6-t*0.2+n1)
	val := 0.5 + 0.5*snoise(u*4+n2*2, v*4+n2*2-t)
	val = smoothstep(1-in.Density, 1, val)

	// dark purple -> blue, then towards magenta by the warp term
	r = mix(0.1, 0.0, val)
	g = mix(0.0, 0.5, val)
	b = mix(0.2, 1.0, val)
	k := n2 * val
	r = mix(r, 1.0, k)
	g = mix(g, 0.0, k)
	b = mix(b, 0.5, k)
	return r * val, g * val, b * val
}

func voronoiFlow(u, v float32, in render.Uniforms) (r, g, b float32) {
	u *= 1.77
	t := in.Time * in.Speed * 0.5

	nx, ny := math32.Floor(u*5), math32.Floor(v*5)
	fx, fy := fract(u*5), fract(v*5)

	dist := float32(1)
	for y := -1; y <= 1; y++ {
		for x := -1; x <= 1; x++ {
			ox, oy := float32(x), float32(y)
			px, py := hash2(nx+ox, ny+oy)
			px = 0.5 + 0.5*math32.Sin(t+6.2831*px)
			py = 0.5 + 0.5*math32.Sin(t+6.2831*py)
			dx, dy := ox+px-fx, oy+py-fy
			dist = min(dist, math32.Sqrt(dx*dx+dy*dy))
		}
	}

	col := 1 - math32.Pow(dist, in.Density*2)
	return 0.2 * col, 0.8 * col, 0.9 * col
}

func scanlineGrid(u, v float32, in render.Uniforms) (r, g, b float32) {
	t := in.Time * in.Speed

	scale := 20 + in.Density*30
	gx, gy := fract(u*scale), fract(v*scale+t)
	lines := smoothstep(0.95, 1, max(gx, gy))

	scan := smoothstep(0.4, 0.6, math32.Sin(v*100-t*5))

	dx, dy := u-0.5, v-0.5
	vignette := 1 - math32.Sqrt(dx*dx+dy*dy)*0.5

	r = (lines*1.0 + scan*0.1) * vignette
	g = (lines*0.2 + scan*0.1) * vignette
	b = (lines*0.5 + scan*0.1) * vignette
	return r, g, b
}

// hash2 is the sine hash of the voronoi lattice.
func hash2(x, y float32) (float32, float32) {
	a := x*127.1 + y*311.7
	b := x*269.5 + y*183.3
	return fract(math32.Sin(a) * 43758.5453), fract(math32.Sin(b) * 43758.5453)
}

// snoise is 2D simplex noise with a mod-289 permutation polynomial.
// Output is roughly in [-1, 1].
func snoise(x, y float32) float32 {
	const (
		cx = 0.211324865405187  // (3 - sqrt(3)) / 6
		cy = 0.366025403784439  // (sqrt(3) - 1) / 2
		cz = -0.577350269189626 // -1 + 2 * cx
		cw = 0.024390243902439  // 1 / 41
	)

	s := (x + y) * cy
	ix, iy := math32.Floor(x+s), math32.Floor(y+s)
	t := (ix + iy) * cx
	x0, y0 := x-ix+t, y-iy+t

	var i1x, i1y float32 = 0, 1
	if x0 > y0 {
		i1x, i1y = 1, 0
	}
	x1, y1 := x0+cx-i1x, y0+cx-i1y
	x2, y2 := x0+cz, y0+cz

	ix, iy = mod289(ix), mod289(iy)
	p0 := permute(permute(iy) + ix)
	p1 := permute(permute(iy+i1y) + ix + i1x)
	p2 := permute(permute(iy+1) + ix + 1)

	m0 := max(0.5-(x0*x0+y0*y0), 0)
	m1 := max(0.5-(x1*x1+y1*y1), 0)
	m2 := max(0.5-(x2*x2+y2*y2), 0)
	m0 *= m0 * m0 * m0
	m1 *= m1 * m1 * m1
	m2 *= m2 * m2 * m2

	g0 := grad(p0, cw, x0, y0, &m0)
	g1 := grad(p1, cw, x1, y1, &m1)
	g2 := grad(p2, cw, x2, y2, &m2)
	return 130 * (m0*g0 + m1*g1 + m2*g2)
}

// grad returns the gradient contribution of corner p and applies the
// normalization factor to its falloff m.
func grad(p, cw, x, y float32, m *float32) float32 {
	gx := 2*fract(p*cw) - 1
	h := math32.Abs(gx) - 0.5
	a0 := gx - math32.Floor(gx+0.5)
	*m *= 1.79284291400159 - 0.85373472095314*(a0*a0+h*h)
	return a0*x + h*y
}

func permute(x float32) float32 { return mod289((x*34 + 1) * x) }

// mod289 is x mod 289 with the sign of the divisor.
func mod289(x float32) float32 { return x - math32.Floor(x*(1.0/289.0))*289 }

func fract(x float32) float32 { return x - math32.Floor(x) }

func mix(a, b, t float32) float32 { return a*(1-t) + b*t }

func smoothstep(e0, e1, x float32) float32 {
	if e0 == e1 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := saturate((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

func saturate(x float32) float32 {
	if x < 0 || x != x {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
