package model

import "errors"

// Errors returned by the store.
var (
	ErrLayerNotFound = errors.New("model: layer not found")
	ErrClipNotFound  = errors.New("model: clip not found")
	ErrSliceNotFound = errors.New("model: slice not found")
	ErrParamNotFound = errors.New("model: parameter not found")
	ErrOutOfRange    = errors.New("model: value out of range")
)

// Layer is an ordered compositing track. Layers are listed bottom first.
type Layer struct {
	ID      string
	Name    string
	Opacity float32

	// Clips are the layer's slots in display order.
	Clips []Clip

	// ActiveClipID names the playing clip; "" means none.
	ActiveClipID string
}

// ActiveClip returns the active clip, if any.
func (l Layer) ActiveClip() (Clip, bool) {
	if l.ActiveClipID == "" {
		return Clip{}, false
	}
	for _, c := range l.Clips {
		if c.ID == l.ActiveClipID {
			return c, true
		}
	}
	return Clip{}, false
}

func (l Layer) clone() Layer {
	clips := make([]Clip, len(l.Clips))
	for i, c := range l.Clips {
		clips[i] = c.clone()
	}
	l.Clips = clips
	return l
}

// Point is a normalized output coordinate, (0,0) top-left, (1,1) bottom-right.
type Point struct {
	X, Y float32
}

// UnitSquare is the identity slice: the full output surface.
var UnitSquare = [4]Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// Slice is a quadrilateral output region. Points are ordered top-left,
// top-right, bottom-right, bottom-left.
type Slice struct {
	ID     string
	Name   string
	Points [4]Point
	Active bool
}

// Snapshot is the per-frame state handed to the engine by value.
type Snapshot struct {
	Layers        []Layer
	Slices        []Slice
	GlobalOpacity float32

	// Orphans lists locators whose resources should be released.
	Orphans []string
}

// StateProvider supplies the engine with state once per frame.
type StateProvider interface {
	// Snapshot returns a copy of the current state.
	Snapshot() Snapshot

	// AcknowledgeOrphans removes the given locators from the orphan list
	// after the engine released them.
	AcknowledgeOrphans(locators []string)
}
