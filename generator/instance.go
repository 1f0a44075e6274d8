package generator

import (
	"github.com/gogpu/aether/model"
	"github.com/gogpu/aether/render"
)

// Parameter names read from a generator clip.
const (
	ParamSpeed   = "Speed"
	ParamDensity = "Density"
)

// Defaults for parameters missing from a clip.
const (
	DefaultSpeed   float32 = 1.0
	DefaultDensity float32 = 0.5
)

// seed is bound to every generator draw.
const seed float32 = 1.0

// Reactivity controls how the audio level modulates density.
type Reactivity struct {
	// Gain is added to density per unit of audio level.
	Gain float32

	// Gate is the audio level at or below which density is left alone.
	Gate float32
}

// DefaultReactivity is the standard audio response.
var DefaultReactivity = Reactivity{Gain: 0.5, Gate: 0.01}

// Density returns the density bound for the given audio level. The result
// is not clamped: the shaders saturate their own output.
func (r Reactivity) Density(density, audio float32) float32 {
	if audio > r.Gate {
		density += audio * r.Gain
	}
	return density
}

// Instance is the per-clip render state of a generator: a full-target quad
// and the uniforms of its next draw. It implements render.Material and
// render.Shader.
type Instance struct {
	clipID   string
	variant  Variant
	mesh     *render.Mesh
	uniforms render.Uniforms
}

func newInstance(clipID string, variant Variant, width, height float32) *Instance {
	in := &Instance{clipID: clipID, variant: variant}
	in.mesh = render.NewQuad("generator/"+clipID, in)
	_ = in.mesh.SetRect(0, 0, width, height)
	return in
}

// ClipID returns the clip the instance belongs to.
func (in *Instance) ClipID() string { return in.clipID }

// Variant returns the algorithm the instance runs.
func (in *Instance) Variant() Variant { return in.variant }

// Mesh returns the quad covering the composition target.
func (in *Instance) Mesh() *render.Mesh { return in.mesh }

// Bind sets the uniforms of the next draw from the clip parameters, the
// frame time and the audio level.
func (in *Instance) Bind(g model.Generator, time, audio float32, r Reactivity) {
	in.uniforms = render.Uniforms{
		Time:    time,
		Speed:   g.Param(ParamSpeed, DefaultSpeed),
		Density: r.Density(g.Param(ParamDensity, DefaultDensity), audio),
		Audio:   audio,
		Seed:    seed,
	}
}

// Key implements render.Material.
func (in *Instance) Key() string { return "generator/" + in.variant.String() }

// ShaderSource implements render.Material.
func (in *Instance) ShaderSource() string { return ShaderSource(in.variant) }

// Uniforms implements render.Material.
func (in *Instance) Uniforms() render.Uniforms { return in.uniforms }

// Texture implements render.Material.
func (in *Instance) Texture() render.Texture { return nil }

// Shade implements render.Shader.
func (in *Instance) Shade(u, v float32) render.Color {
	return Shade(in.variant, u, v, in.uniforms)
}

// Destroy releases the mesh.
func (in *Instance) Destroy() {
	if in.mesh != nil {
		in.mesh.Destroy()
	}
}

var (
	_ render.Material = (*Instance)(nil)
	_ render.Shader   = (*Instance)(nil)
)
