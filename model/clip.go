package model

// Content is the payload of a clip: exactly one of Generator, Video, Image
// or Empty. The interface is sealed; switch on the concrete type.
//
//	switch c := clip.Content.(type) {
//	case model.Generator:
//	case model.Video:
//	case model.Image:
//	default: // model.Empty or nil
//	}
type Content interface {
	content()
}

// Generator is procedural content.
type Generator struct {
	// Variant selects the procedural algorithm, e.g. "smoke".
	// Unknown variants render as smoke.
	Variant string

	// Params are the user-controlled inputs, looked up by name.
	Params []Param
}

// Video is looping video content read from Locator.
type Video struct {
	Locator string
}

// Image is still image content read from Locator.
type Image struct {
	Locator string
}

// Empty is a clip slot without content.
type Empty struct{}

func (Generator) content() {}
func (Video) content()     {}
func (Image) content()     {}
func (Empty) content()     {}

// Param is a named numeric generator input with its editing range.
type Param struct {
	Name  string
	Value float32
	Min   float32
	Max   float32
}

// Clip is an addressable unit of content in a layer slot.
// ID is stable for the lifetime of the clip; Content may be edited.
type Clip struct {
	ID      string
	Name    string
	Content Content
}

// Locator returns the media locator of the clip, or "" for generator and
// empty clips.
func (c Clip) Locator() string {
	switch v := c.Content.(type) {
	case Video:
		return v.Locator
	case Image:
		return v.Locator
	}
	return ""
}

// IsEmpty reports whether the clip has no content.
func (c Clip) IsEmpty() bool {
	switch c.Content.(type) {
	case Generator, Video, Image:
		return false
	}
	return true
}

// Param returns the value of the named parameter, or def when absent.
func (g Generator) Param(name string, def float32) float32 {
	for _, p := range g.Params {
		if p.Name == name {
			return p.Value
		}
	}
	return def
}

// clone returns a deep copy of the clip.
func (c Clip) clone() Clip {
	if g, ok := c.Content.(Generator); ok {
		g.Params = append([]Param(nil), g.Params...)
		c.Content = g
	}
	return c
}
