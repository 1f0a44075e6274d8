package generator

import "strings"

// Variant selects one of the procedural algorithms.
type Variant int

const (
	// Smoke is domain-warped simplex noise with a density threshold.
	Smoke Variant = iota

	// VoronoiFlow is the distance field of a drifting jittered lattice.
	VoronoiFlow

	// ScanlineGrid is an animated grid with a rolling scanline.
	ScanlineGrid
)

// Variants lists every variant in declaration order.
var Variants = []Variant{Smoke, VoronoiFlow, ScanlineGrid}

// String returns the canonical tag of the variant.
func (v Variant) String() string {
	switch v {
	case VoronoiFlow:
		return "voronoi-flow"
	case ScanlineGrid:
		return "scanline-grid"
	default:
		return "smoke"
	}
}

// ParseVariant maps a clip's variant tag to a Variant. Tags are matched
// case-insensitively, with or without their suffix ("voronoi" and
// "voronoi-flow" are the same). Unknown and empty tags return Smoke and
// false.
func ParseVariant(tag string) (Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "smoke", "feedback-smoke":
		return Smoke, true
	case "voronoi", "voronoi-flow":
		return VoronoiFlow, true
	case "scanline", "scanline-grid", "grid":
		return ScanlineGrid, true
	}
	return Smoke, false
}
