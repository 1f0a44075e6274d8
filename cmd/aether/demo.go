package main

import (
	"fmt"
	"path/filepath"

	"github.com/h2non/filetype"

	"github.com/gogpu/aether/generator"
	"github.com/gogpu/aether/model"
)

// seedDemo fills the default store: smoke on layer 1, voronoi flow at half
// opacity on layer 2 and the given media files on layer 3, the first of
// them active. It returns the media locators.
func seedDemo(store *model.Store, files []string) ([]string, error) {
	generators := []struct {
		layer   string
		variant string
	}{
		{"layer-1", "smoke"},
		{"layer-1", "scanline-grid"},
		{"layer-2", "voronoi-flow"},
	}
	for _, g := range generators {
		err := store.AddClip(g.layer, model.Clip{
			Name: g.variant,
			Content: model.Generator{
				Variant: g.variant,
				Params: []model.Param{
					{Name: generator.ParamSpeed, Value: generator.DefaultSpeed, Min: 0, Max: 4},
					{Name: generator.ParamDensity, Value: generator.DefaultDensity, Min: 0, Max: 1},
				},
			},
		})
		if err != nil {
			return nil, err
		}
	}
	if err := store.TriggerClip("layer-1", "layer-1-slot-1"); err != nil {
		return nil, err
	}
	if err := store.TriggerClip("layer-2", "layer-2-slot-1"); err != nil {
		return nil, err
	}
	if err := store.SetLayerOpacity("layer-2", 0.5); err != nil {
		return nil, err
	}

	var locators []string
	for _, f := range files {
		content, err := mediaContent(f)
		if err != nil {
			return nil, err
		}
		if err := store.AddClip("layer-3", model.Clip{Name: filepath.Base(f), Content: content}); err != nil {
			return nil, err
		}
		locators = append(locators, f)
	}
	if len(locators) > 0 {
		if err := store.TriggerClip("layer-3", "layer-3-slot-1"); err != nil {
			return nil, err
		}
	}
	return locators, nil
}

// mediaContent sniffs path and returns a Video or Image clip content.
func mediaContent(path string) (model.Content, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	switch kind.MIME.Type {
	case "video":
		return model.Video{Locator: path}, nil
	case "image":
		return model.Image{Locator: path}, nil
	}
	return nil, fmt.Errorf("%s: not an image or video (%s)", path, kind.MIME.Value)
}
