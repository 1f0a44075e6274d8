// Package generator implements the procedural content of aether clips.
//
// Each Variant exists twice: as a WGSL fragment program executed by GPU
// devices and as the pure function Shade used by the software device.
// Both read the same uniforms (time, speed, density, audio, seed) and
// produce straight-alpha color with alpha 1 that the device multiplies
// by the mesh opacity.
//
// Instances are cached per clip id by Cache and rebound every frame:
//
//	inst := gens.Resolve(clip.ID, g, frame.Time, frame.Audio)
//	inst.Mesh().SetAlpha(layer.Opacity * snap.GlobalOpacity)
//	pass.Meshes = append(pass.Meshes, inst.Mesh())
package generator
