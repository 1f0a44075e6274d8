package generator

import (
	_ "embed"

	"github.com/gogpu/aether/render"
)

var (
	//go:embed shaders/smoke.wgsl
	smokeFragment string

	//go:embed shaders/voronoi.wgsl
	voronoiFragment string

	//go:embed shaders/scanline.wgsl
	scanlineFragment string
)

// ShaderSource returns the complete WGSL module of a variant.
func ShaderSource(v Variant) string {
	switch v {
	case VoronoiFlow:
		return render.ShaderPrelude + voronoiFragment
	case ScanlineGrid:
		return render.ShaderPrelude + scanlineFragment
	default:
		return render.ShaderPrelude + smokeFragment
	}
}

// Programs returns one material per variant, for devices that compile
// pipelines ahead of the first frame.
func Programs() []render.Material {
	out := make([]render.Material, len(Variants))
	for i, v := range Variants {
		out[i] = &Instance{variant: v}
	}
	return out
}
