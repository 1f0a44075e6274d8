package model

import (
	"fmt"
	"slices"
	"sync"
)

// Store is an in-memory StateProvider.
//
// It stands in for the editing application: every mutation is guarded by a
// mutex, and Snapshot hands out deep copies, so an editor goroutine can
// mutate the store while the engine reads it once per frame.
type Store struct {
	mu            sync.Mutex
	layers        []Layer
	slices        []Slice
	globalOpacity float32
	orphans       []string
}

// NewStore returns a store with the given layers and slices and a global
// opacity of 1.
func NewStore(layers []Layer, slices []Slice) *Store {
	s := &Store{globalOpacity: 1}
	for _, l := range layers {
		s.layers = append(s.layers, l.clone())
	}
	s.slices = append(s.slices, slices...)
	return s
}

// DefaultStore returns the start-up state of a new project: three layers of
// four empty slots each and one active slice covering the whole output.
func DefaultStore() *Store {
	layers := make([]Layer, 3)
	for i := range layers {
		id := fmt.Sprintf("layer-%d", i+1)
		layers[i] = Layer{
			ID:      id,
			Name:    fmt.Sprintf("Layer %d", i+1),
			Opacity: 1,
		}
		for j := range 4 {
			layers[i].Clips = append(layers[i].Clips, Clip{
				ID:      fmt.Sprintf("%s-slot-%d", id, j+1),
				Content: Empty{},
			})
		}
	}
	return NewStore(layers, []Slice{{ID: "s1", Name: "Main", Points: UnitSquare, Active: true}})
}

// Snapshot implements StateProvider.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Layers:        make([]Layer, len(s.layers)),
		Slices:        slices.Clone(s.slices),
		GlobalOpacity: s.globalOpacity,
		Orphans:       slices.Clone(s.orphans),
	}
	for i, l := range s.layers {
		snap.Layers[i] = l.clone()
	}
	return snap
}

// AcknowledgeOrphans implements StateProvider. Locators orphaned after the
// snapshot was taken stay listed.
func (s *Store) AcknowledgeOrphans(locators []string) {
	if len(locators) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orphans = slices.DeleteFunc(s.orphans, func(l string) bool {
		return slices.Contains(locators, l)
	})
}

// Orphan lists locator for release by the engine.
func (s *Store) Orphan(locator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orphanLocked(locator)
}

// TriggerClip makes clipID the active clip of the layer, or deactivates it
// when it is already active.
func (s *Store) TriggerClip(layerID, clipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layerID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(l.Clips, func(c Clip) bool { return c.ID == clipID }) {
		return fmt.Errorf("%w: %q", ErrClipNotFound, clipID)
	}
	if l.ActiveClipID == clipID {
		l.ActiveClipID = ""
	} else {
		l.ActiveClipID = clipID
	}
	return nil
}

// AddClip places clip into the first empty slot of the layer, or appends a
// new slot when none is empty.
func (s *Store) AddClip(layerID string, clip Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layerID)
	if err != nil {
		return err
	}
	clip = clip.clone()
	for i, c := range l.Clips {
		if c.IsEmpty() {
			// The slot keeps its id when the clip has none.
			if clip.ID == "" {
				clip.ID = c.ID
			}
			l.Clips[i] = clip
			return nil
		}
	}
	if clip.ID == "" {
		clip.ID = fmt.Sprintf("%s-slot-%d", layerID, len(l.Clips)+1)
	}
	l.Clips = append(l.Clips, clip)
	return nil
}

// RemoveClip empties the clip's slot. A media locator no longer referenced
// by any clip is orphaned.
func (s *Store) RemoveClip(clipID string) error {
	return s.SetContent(clipID, Empty{})
}

// SetContent replaces a clip's content, keeping its id. A media locator no
// longer referenced by any clip is orphaned.
func (s *Store) SetContent(clipID string, content Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.clip(clipID)
	if err != nil {
		return err
	}
	old := c.Locator()
	if g, ok := content.(Generator); ok {
		g.Params = slices.Clone(g.Params)
		content = g
	}
	c.Content = content
	if old != "" && old != c.Locator() && !s.referenced(old) {
		s.orphanLocked(old)
	}
	return nil
}

// UpdateParam sets a generator parameter, clamped into its range.
func (s *Store) UpdateParam(clipID, name string, value float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.clip(clipID)
	if err != nil {
		return err
	}
	g, ok := c.Content.(Generator)
	if !ok {
		return fmt.Errorf("%w: clip %q is not a generator", ErrParamNotFound, clipID)
	}
	for i := range g.Params {
		if g.Params[i].Name != name {
			continue
		}
		p := &g.Params[i]
		if p.Min < p.Max {
			value = min(max(value, p.Min), p.Max)
		}
		p.Value = value
		c.Content = g
		return nil
	}
	return fmt.Errorf("%w: %q", ErrParamNotFound, name)
}

// SetLayerOpacity sets a layer's opacity in [0, 1].
func (s *Store) SetLayerOpacity(layerID string, opacity float32) error {
	if opacity < 0 || opacity > 1 {
		return ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.layer(layerID)
	if err != nil {
		return err
	}
	l.Opacity = opacity
	return nil
}

// SetGlobalOpacity sets the master opacity in [0, 1].
func (s *Store) SetGlobalOpacity(opacity float32) error {
	if opacity < 0 || opacity > 1 {
		return ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalOpacity = opacity
	return nil
}

// UpdateSlice moves the corners of a slice. Points are normalized output
// coordinates and may lie outside [0, 1] to bleed past the surface edge.
func (s *Store) UpdateSlice(sliceID string, points [4]Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slices {
		if s.slices[i].ID == sliceID {
			s.slices[i].Points = points
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrSliceNotFound, sliceID)
}

// SetSliceActive enables or disables a slice.
func (s *Store) SetSliceActive(sliceID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.slices {
		if s.slices[i].ID == sliceID {
			s.slices[i].Active = active
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrSliceNotFound, sliceID)
}

// AddSlice appends an output slice.
func (s *Store) AddSlice(slice Slice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slices = append(s.slices, slice)
}

func (s *Store) layer(id string) (*Layer, error) {
	for i := range s.layers {
		if s.layers[i].ID == id {
			return &s.layers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
}

func (s *Store) clip(id string) (*Clip, error) {
	for i := range s.layers {
		for j := range s.layers[i].Clips {
			if s.layers[i].Clips[j].ID == id {
				return &s.layers[i].Clips[j], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrClipNotFound, id)
}

func (s *Store) referenced(locator string) bool {
	for _, l := range s.layers {
		for _, c := range l.Clips {
			if c.Locator() == locator {
				return true
			}
		}
	}
	return false
}

func (s *Store) orphanLocked(locator string) {
	if locator != "" && !slices.Contains(s.orphans, locator) {
		s.orphans = append(s.orphans, locator)
	}
}

var _ StateProvider = (*Store)(nil)
